package analytics

import (
	"fmt"

	"github.com/solvaholic/teampulse/internal/normalize"
)

// Trend of an insight's metric.
type Trend string

const (
	TrendPositive Trend = "positive"
	TrendNegative Trend = "negative"
	TrendStable   Trend = "stable"
)

// Severity of an insight.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Category groups insights for routing to recommendations.
type Category string

const (
	CategoryCommunication Category = "communication"
	CategoryBurnout       Category = "burnout"
	CategoryCollaboration Category = "collaboration"
	CategoryLeadership    Category = "leadership"
	CategoryPerformance   Category = "performance"
)

// SourceSlack is the only insight source.
const SourceSlack = "slack"

// AnalyticsInsight is one human-readable finding.
type AnalyticsInsight struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Metric          string   `json:"metric"`
	Trend           Trend    `json:"trend"`
	Severity        Severity `json:"severity"`
	Category        Category `json:"category"`
	Source          string   `json:"source"`
	Confidence      float64  `json:"confidence"`
	Recommendations []string `json:"recommendations"`
}

// GenerateInsights applies the fixed rule list to metrics, in order.
// weekMessages only feeds descriptive text.
func GenerateInsights(metrics TeamHealthMetrics, weekMessages []normalize.Message) []AnalyticsInsight {
	insights := []AnalyticsInsight{}

	if metrics.ResponseTime > 4.5 {
		insights = append(insights, AnalyticsInsight{
			ID:          "response_time_1",
			Title:       "Response Time Plateau",
			Description: "SLA implementation showing some stabilization effect but still above target",
			Metric:      fmt.Sprintf("%.1f hours average", metrics.ResponseTime),
			Trend:       TrendStable,
			Severity:    SeverityWarning,
			Category:    CategoryCommunication,
			Source:      SourceSlack,
			Confidence:  0.87,
			Recommendations: []string{
				"Implement focus time blocks to reduce interruptions",
				"Set clear response time expectations",
				"Consider async-first communication practices",
			},
		})
	}

	if metrics.BurnoutRisk > 0.7 {
		insights = append(insights, AnalyticsInsight{
			ID:          "burnout_1",
			Title:       "High Burnout Risk Detected",
			Description: "Weekend activity and after-hours communication patterns indicate elevated stress levels",
			Metric:      fmt.Sprintf("%.0f%% risk level", metrics.BurnoutRisk*100),
			Trend:       TrendNegative,
			Severity:    SeverityCritical,
			Category:    CategoryBurnout,
			Source:      SourceSlack,
			Confidence:  0.89,
			Recommendations: []string{
				"Implement mandatory time-off policies",
				"Reduce meeting load by 30%",
				"Establish clear work-life boundaries",
				"Provide mental health resources",
			},
		})
	}

	if metrics.PsychologicalSafety < 0.6 {
		insights = append(insights, AnalyticsInsight{
			ID:          "psych_safety_1",
			Title:       "Psychological Safety Concerns",
			Description: "Low help-seeking behavior and limited error reporting suggest trust issues",
			Metric:      fmt.Sprintf("%.0f%% safety score", metrics.PsychologicalSafety*100),
			Trend:       TrendNegative,
			Severity:    SeverityCritical,
			Category:    CategoryLeadership,
			Source:      SourceSlack,
			Confidence:  0.85,
			Recommendations: []string{
				"Model vulnerability as a leader",
				"Create safe spaces for honest feedback",
				"Celebrate learning from mistakes",
				"Implement regular team retrospectives",
			},
		})
	}

	if metrics.Centralization > 0.7 {
		insights = append(insights, AnalyticsInsight{
			ID:          "network_1",
			Title:       "Decision Bottleneck Formation",
			Description: bottleneckDescription(metrics.Centralization, weekMessages),
			Metric:      fmt.Sprintf("%.0f%% centralization", metrics.Centralization*100),
			Trend:       TrendNegative,
			Severity:    SeverityCritical,
			Category:    CategoryCollaboration,
			Source:      SourceSlack,
			Confidence:  0.82,
			Recommendations: []string{
				"Distribute decision-making authority",
				"Cross-train team members",
				"Implement knowledge sharing sessions",
				"Create backup decision-makers",
			},
		})
	}

	if metrics.TeamStage == StageStorming {
		insights = append(insights, AnalyticsInsight{
			ID:          "team_stage_1",
			Title:       "Team in Storming Phase",
			Description: "Conflict patterns suggest team is in development stage requiring leadership support",
			Metric:      "Storming stage detected",
			Trend:       TrendStable,
			Severity:    SeverityWarning,
			Category:    CategoryLeadership,
			Source:      SourceSlack,
			Confidence:  0.78,
			Recommendations: []string{
				"Facilitate conflict resolution sessions",
				"Establish clear team norms",
				"Provide team coaching support",
				"Focus on building trust",
			},
		})
	}

	return insights
}

func bottleneckDescription(centralization float64, weekMessages []normalize.Message) string {
	if len(weekMessages) == 0 {
		return fmt.Sprintf("One participant accounts for %.0f%% of message volume, concentrating decisions on a single person", centralization*100)
	}
	return fmt.Sprintf("One participant accounts for %.0f%% of %d messages this week, concentrating decisions on a single person",
		centralization*100, len(weekMessages))
}

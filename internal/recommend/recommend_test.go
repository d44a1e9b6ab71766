package recommend

import (
	"strings"
	"testing"

	"github.com/solvaholic/teampulse/internal/analytics"
	"github.com/solvaholic/teampulse/internal/normalize"
)

func healthy() analytics.TeamHealthMetrics {
	return analytics.TeamHealthMetrics{
		PsychologicalSafety: 0.7,
		Centralization:      0.3,
		NetworkDensity:      0.5,
		BurnoutRisk:         0.1,
		TeamStage:           analytics.StageNorming,
		InnovationBehavior:  0.4,
		CollaborationIndex:  0.5,
		EarlyWarnings:       []string{},
		RiskLevel:           analytics.RiskLow,
	}
}

func recIDs(recs []Recommendation) string {
	var out []string
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return strings.Join(out, ",")
}

var testCtx = Context{Week: "2025-W28", ActiveUsers: 4, TotalUsers: 6, ChannelCount: 3, AdminCount: 1}

func TestGenerateRecommendations(t *testing.T) {
	critical := func(id string, cat analytics.Category) analytics.AnalyticsInsight {
		return analytics.AnalyticsInsight{ID: id, Severity: analytics.SeverityCritical, Category: cat}
	}

	tests := []struct {
		name     string
		modify   func(*analytics.TeamHealthMetrics)
		insights []analytics.AnalyticsInsight
		want     string
	}{
		{
			name:   "healthy falls back",
			modify: func(*analytics.TeamHealthMetrics) {},
			want:   "general-team-health",
		},
		{
			name: "everything triggered keeps top three by priority",
			modify: func(m *analytics.TeamHealthMetrics) {
				m.PsychologicalSafety = 0.1
				m.Centralization = 0.9
				m.NetworkDensity = 0.1
				m.BurnoutRisk = 0.9
				m.TeamStage = analytics.StageStorming
				m.InnovationBehavior = 0.1
				m.CollaborationIndex = 0.1
			},
			want: "psychological-safety-enhancement,decision-delegation-framework,burnout-prevention",
		},
		{
			name: "medium rules keep declaration order",
			modify: func(m *analytics.TeamHealthMetrics) {
				m.NetworkDensity = 0.1
				m.TeamStage = analytics.StageForming
				m.InnovationBehavior = 0.1
				m.CollaborationIndex = 0.1
			},
			want: "communication-optimization,team-development-optimization,innovation-culture-building",
		},
		{
			name:     "critical communication insight injects",
			modify:   func(*analytics.TeamHealthMetrics) {},
			insights: []analytics.AnalyticsInsight{critical("very-low-activity", analytics.CategoryCommunication)},
			want:     "communication-very-low-activity",
		},
		{
			name:     "critical burnout insight injects",
			modify:   func(*analytics.TeamHealthMetrics) {},
			insights: []analytics.AnalyticsInsight{critical("burnout_1", analytics.CategoryBurnout)},
			want:     "burnout-burnout_1",
		},
		{
			name:     "critical collaboration insight injects delegation",
			modify:   func(*analytics.TeamHealthMetrics) {},
			insights: []analytics.AnalyticsInsight{critical("network_1", analytics.CategoryCollaboration)},
			want:     "collaboration-network_1",
		},
		{
			name:     "critical engagement insight injects collaboration enhancement",
			modify:   func(*analytics.TeamHealthMetrics) {},
			insights: []analytics.AnalyticsInsight{critical("very-low-engagement", analytics.CategoryCollaboration)},
			want:     "engagement-very-low-engagement",
		},
		{
			name: "engagement insight upgrades selected collaboration enhancement",
			modify: func(m *analytics.TeamHealthMetrics) {
				m.CollaborationIndex = 0.1
			},
			insights: []analytics.AnalyticsInsight{critical("very-low-engagement", analytics.CategoryCollaboration)},
			want:     "collaboration-enhancement",
		},
		{
			name: "injection upgrades an already selected template",
			modify: func(m *analytics.TeamHealthMetrics) {
				m.InnovationBehavior = 0.1
				m.NetworkDensity = 0.2
			},
			insights: []analytics.AnalyticsInsight{critical("very-low-activity", analytics.CategoryCommunication)},
			want:     "communication-optimization,innovation-culture-building",
		},
		{
			name:   "warning insights are ignored",
			modify: func(*analytics.TeamHealthMetrics) {},
			insights: []analytics.AnalyticsInsight{
				{ID: "response_time_1", Severity: analytics.SeverityWarning, Category: analytics.CategoryCommunication},
			},
			want: "general-team-health",
		},
		{
			name:   "performance insights have no template",
			modify: func(*analytics.TeamHealthMetrics) {},
			insights: []analytics.AnalyticsInsight{
				critical("perf", analytics.CategoryPerformance),
			},
			want: "general-team-health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := healthy()
			tt.modify(&m)
			got := GenerateRecommendations(m, tt.insights, testCtx)
			if recIDs(got) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, recIDs(got))
			}
			if len(got) > MaxRecommendations {
				t.Errorf("expected at most %d recommendations, got %d", MaxRecommendations, len(got))
			}
		})
	}
}

func TestGenerateRecommendationsUpgradePriority(t *testing.T) {
	m := healthy()
	m.NetworkDensity = 0.2
	insights := []analytics.AnalyticsInsight{
		{ID: "very-low-activity", Severity: analytics.SeverityCritical, Category: analytics.CategoryCommunication},
		{ID: "other", Severity: analytics.SeverityCritical, Category: analytics.CategoryCommunication},
	}

	got := GenerateRecommendations(m, insights, testCtx)
	if len(got) != 1 {
		t.Fatalf("expected one recommendation, got %q", recIDs(got))
	}
	if got[0].Priority != PriorityHigh {
		t.Errorf("expected upgraded priority high, got %s", got[0].Priority)
	}
	if got[0].Impact != "Medium - Can improve performance by 40%" {
		t.Errorf("expected original impact to be kept, got %q", got[0].Impact)
	}
}

func TestEngagementInsightTemplate(t *testing.T) {
	insights := []analytics.AnalyticsInsight{
		{ID: "very-low-engagement", Severity: analytics.SeverityCritical, Category: analytics.CategoryCollaboration},
	}
	got := GenerateRecommendations(healthy(), insights, testCtx)
	if len(got) != 1 {
		t.Fatalf("expected one recommendation, got %q", recIDs(got))
	}
	if got[0].Template != CollaborationEnhancement || got[0].Priority != PriorityHigh {
		t.Errorf("expected high priority collaboration enhancement, got %s %s", got[0].Template, got[0].Priority)
	}
	for _, r := range got {
		if r.Template == DecisionDelegation {
			t.Errorf("engagement insight must not select delegation: %q", recIDs(got))
		}
	}
}

func TestGenerateRecommendationsEnriched(t *testing.T) {
	m := healthy()
	m.PsychologicalSafety = 0.42

	got := GenerateRecommendations(m, nil, testCtx)
	if len(got) != 1 {
		t.Fatalf("expected one recommendation, got %q", recIDs(got))
	}
	r := got[0]
	if r.Title != "Psychological Safety Enhancement" || r.Priority != PriorityHigh {
		t.Errorf("unexpected recommendation %+v", r)
	}
	if r.ExpectedImprovement != "Increase psychological safety score from 42% to 70-80%" {
		t.Errorf("unexpected expected improvement %q", r.ExpectedImprovement)
	}
	if r.Target != (Target{Current: "42%", Target: "70-80%", Change: "+25-35%"}) {
		t.Errorf("unexpected target %+v", r.Target)
	}
	if !strings.Contains(r.Context, "4 active members across 3 channels") {
		t.Errorf("unexpected context %q", r.Context)
	}
	if len(r.Implementation) != 5 || len(r.LearnMore) != 3 || len(r.KeyMetrics) != 3 {
		t.Errorf("expected full template text, got %+v", r)
	}
}

func TestGeneralFallbackUsesPsychologicalSafetyImpact(t *testing.T) {
	got := GenerateRecommendations(healthy(), nil, testCtx)
	r := got[0]
	if r.Template != PsychologicalSafety || r.Priority != PriorityMedium {
		t.Errorf("unexpected fallback %+v", r)
	}
	if r.Target.Current != "70%" {
		t.Errorf("expected current psychological safety 70%%, got %q", r.Target.Current)
	}
}

func TestTemplatesCopied(t *testing.T) {
	m := healthy()
	m.PsychologicalSafety = 0.1
	got := GenerateRecommendations(m, nil, testCtx)
	got[0].Implementation[0] = "changed"

	tmpl, _ := Lookup(PsychologicalSafety)
	if tmpl.Implementation[0] == "changed" {
		t.Errorf("mutating a recommendation changed the shared template")
	}
}

func TestAnalyzeImpact(t *testing.T) {
	m := healthy()
	m.Centralization = 0.85
	m.TeamStage = analytics.StageStorming

	tests := []struct {
		key  TemplateKey
		want string
	}{
		{DecisionDelegation, "Reduce centralization from 85% to 30-40%"},
		{CommunicationOptimization, "Increase network density from 50% to 50-60%"},
		{BurnoutPrevention, "Reduce burnout risk from 10% to 20-30%"},
		{InnovationCulture, "Increase innovation behavior from 40% to 40-50%"},
		{CollaborationEnhancement, "Increase collaboration index from 50% to 50-60%"},
		{TeamDevelopment, "Progress team development from 'storming' to 'performing' stage"},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := AnalyzeImpact(tt.key, m)
			if got.ExpectedImprovement != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got.ExpectedImprovement)
			}
			if len(got.KeyMetrics) != 3 || len(got.SuccessIndicators) != 3 || len(got.RiskFactors) != 3 {
				t.Errorf("expected three entries per list, got %+v", got)
			}
			if ContextLine(tt.key, m, testCtx) == "" {
				t.Errorf("expected a context line")
			}
		})
	}

	if got := AnalyzeImpact(TemplateKey("unknown"), m); got.ExpectedImprovement != "" {
		t.Errorf("expected empty impact for unknown template, got %+v", got)
	}
}

func TestActivityActions(t *testing.T) {
	slow := 7.5
	fast := 1.0

	tests := []struct {
		name     string
		activity analytics.WeeklyActivity
		want     string
	}{
		{name: "healthy", activity: analytics.WeeklyActivity{AvgFirstReplyHours: &fast, Gini: 0.2}, want: "Keep Momentum"},
		{name: "no replies", activity: analytics.WeeklyActivity{}, want: "Keep Momentum"},
		{name: "slow replies", activity: analytics.WeeklyActivity{AvgFirstReplyHours: &slow}, want: "Accelerate Replies"},
		{name: "uneven voice", activity: analytics.WeeklyActivity{Gini: 0.5}, want: "Broaden Participation"},
		{
			name:     "cloud spend",
			activity: analytics.WeeklyActivity{Alerts: []normalize.Alert{{Source: "bot"}, {Source: "aws"}}},
			want:     "Review Cloud Spend",
		},
		{
			name:     "non-aws alerts",
			activity: analytics.WeeklyActivity{Alerts: []normalize.Alert{{Source: "integration"}}},
			want:     "Keep Momentum",
		},
		{
			name: "everything",
			activity: analytics.WeeklyActivity{
				AvgFirstReplyHours: &slow,
				Gini:               0.8,
			},
			want: "Accelerate Replies,Broaden Participation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var titles []string
			for _, a := range ActivityActions(tt.activity) {
				titles = append(titles, a.Title)
			}
			if strings.Join(titles, ",") != tt.want {
				t.Errorf("expected %q, got %q", tt.want, strings.Join(titles, ","))
			}
		})
	}
}

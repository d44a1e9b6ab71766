package analytics

import (
	"fmt"
	"sort"

	"github.com/solvaholic/teampulse/internal/classify"
	"github.com/solvaholic/teampulse/internal/graph"
	"github.com/solvaholic/teampulse/internal/normalize"
)

// TopUserLimit caps WeeklyActivity.TopUsers.
const TopUserLimit = 5

// UserCount is a message count for one user.
type UserCount struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Count       int    `json:"count"`
}

// WeeklyActivity summarizes raw participation for one week.
type WeeklyActivity struct {
	TotalMessages      int               `json:"totalMessages"`
	ByChannel          map[string]int    `json:"byChannel"` // channel name -> count
	ByUser             map[string]int    `json:"byUser"`    // user id -> count
	ActiveUsers        int               `json:"activeUsers"`
	TopUsers           []UserCount       `json:"topUsers"`
	Gini               float64           `json:"gini"`
	AvgFirstReplyHours *float64          `json:"avgFirstReplyHours"` // nil when no replies were seen
	MentionEdges       []graph.Edge      `json:"mentionEdges"`
	Alerts             []normalize.Alert `json:"alerts"`
}

// HasAWSAlerts reports whether any alert came from AWS.
func (a WeeklyActivity) HasAWSAlerts() bool {
	for _, al := range a.Alerts {
		if al.Source == "aws" {
			return true
		}
	}
	return false
}

// ComputeActivity runs the default engine.
func ComputeActivity(weekMessages []normalize.Message, users []normalize.User, channels []normalize.Channel, alerts []normalize.Alert) WeeklyActivity {
	return defaultEngine.ComputeActivity(weekMessages, users, channels, alerts)
}

// ComputeActivity builds the participation summary. alerts should already be
// limited to the week.
func (e *Engine) ComputeActivity(weekMessages []normalize.Message, users []normalize.User, channels []normalize.Channel, alerts []normalize.Alert) WeeklyActivity {
	s := Clean(weekMessages, users, channels)

	names := make(map[string]string, len(s.Channels))
	for _, c := range s.Channels {
		names[c.ID] = c.Name
	}

	a := WeeklyActivity{
		TotalMessages: len(s.Messages),
		ByChannel:     make(map[string]int),
		ByUser:        make(map[string]int),
		TopUsers:      []UserCount{},
		Alerts:        []normalize.Alert{},
	}
	for _, m := range s.Messages {
		a.ByChannel[names[m.ChannelID]]++
		a.ByUser[m.UserID]++
	}
	a.ActiveUsers = len(a.ByUser)

	counts := make([]int, 0, len(a.ByUser))
	for _, c := range a.ByUser {
		counts = append(counts, c)
	}
	a.Gini = Gini(counts)

	display := make(map[string]string, len(s.Users))
	for _, u := range s.Users {
		display[u.ID] = u.DisplayName
	}
	for id, c := range a.ByUser {
		a.TopUsers = append(a.TopUsers, UserCount{UserID: id, DisplayName: display[id], Count: c})
	}
	sort.Slice(a.TopUsers, func(i, j int) bool {
		if a.TopUsers[i].Count != a.TopUsers[j].Count {
			return a.TopUsers[i].Count > a.TopUsers[j].Count
		}
		return a.TopUsers[i].UserID < a.TopUsers[j].UserID
	})
	if len(a.TopUsers) > TopUserLimit {
		a.TopUsers = a.TopUsers[:TopUserLimit]
	}

	a.AvgFirstReplyHours = e.firstReplyHours(s.Messages)
	a.MentionEdges = graph.BuildMentionNetwork(s.Messages, s.IsHuman).Edges()

	if alerts != nil {
		a.Alerts = alerts
	}
	return a
}

// firstReplyHours averages the gap between consecutive messages from
// different users within the same channel and calendar day. Gaps are taken on
// whole seconds.
func (e *Engine) firstReplyHours(messages []normalize.Message) *float64 {
	type bucket struct {
		channel string
		day     string
	}
	buckets := make(map[bucket][]normalize.Message)
	var keys []bucket
	for _, m := range messages {
		k := bucket{m.ChannelID, m.Timestamp.In(e.opts.Location).Format("2006-01-02")}
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], m)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].channel != keys[j].channel {
			return keys[i].channel < keys[j].channel
		}
		return keys[i].day < keys[j].day
	})

	var sum float64
	var n int
	for _, k := range keys {
		msgs := buckets[k]
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		})
		for i := 1; i < len(msgs); i++ {
			if msgs[i].UserID == msgs[i-1].UserID {
				continue
			}
			delta := msgs[i].Timestamp.Unix() - msgs[i-1].Timestamp.Unix()
			if delta < 0 {
				continue
			}
			sum += float64(delta) / 3600
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// Gini measures inequality of per-user message counts: 0 is perfectly even,
// values near 1 mean one voice dominates.
func Gini(counts []int) float64 {
	n := len(counts)
	if n == 0 {
		return 0
	}
	sorted := append([]int(nil), counts...)
	sort.Ints(sorted)

	var sum, weighted float64
	for i, c := range sorted {
		sum += float64(c)
		weighted += float64(i+1) * float64(c)
	}
	if sum == 0 {
		return 0
	}
	nf := float64(n)
	return 2*weighted/(nf*sum) - (nf+1)/nf
}

// GenerateActivityInsights runs the default engine.
func GenerateActivityInsights(weekMessages []normalize.Message, users []normalize.User, channels []normalize.Channel) []AnalyticsInsight {
	return defaultEngine.GenerateActivityInsights(weekMessages, users, channels)
}

// GenerateActivityInsights reports on volume, channel focus, engagement,
// business-hours share and team makeup.
func (e *Engine) GenerateActivityInsights(weekMessages []normalize.Message, users []normalize.User, channels []normalize.Channel) []AnalyticsInsight {
	s := Clean(weekMessages, users, channels)
	insights := []AnalyticsInsight{}
	total := len(s.Messages)

	byChannel := make(map[string]int)
	for _, m := range s.Messages {
		byChannel[m.ChannelID]++
	}

	if in := activityLevel(total, len(byChannel)); in != nil {
		insights = append(insights, *in)
	}

	names := make(map[string]string, len(s.Channels))
	for _, c := range s.Channels {
		names[c.ID] = c.Name
	}
	var topID string
	for id, c := range byChannel {
		if c > byChannel[topID] || (c == byChannel[topID] && names[id] < names[topID]) {
			topID = id
		}
	}
	if topCount := byChannel[topID]; topCount > 0 {
		insights = append(insights, AnalyticsInsight{
			ID:          "channel-focus",
			Title:       "Primary Communication Channel",
			Description: fmt.Sprintf("%s is the most active channel with %d messages (%.1f%% of all activity).", names[topID], topCount, ratio(topCount, total)*100),
			Metric:      fmt.Sprintf("%d messages", topCount),
			Trend:       TrendStable,
			Severity:    SeverityInfo,
			Category:    CategoryCommunication,
			Source:      SourceSlack,
			Confidence:  0.95,
			Recommendations: []string{
				"Ensure important announcements reach all team members",
				"Consider cross-channel communication strategies",
				"Monitor for siloed communication patterns",
			},
		})
	}

	totalUsers := len(s.Users)
	active := s.ActiveUsers()
	if totalUsers > 0 {
		rate := ratio(active, totalUsers) * 100
		if rate < 50 {
			in := AnalyticsInsight{
				ID:          "low-engagement",
				Title:       "Low Team Engagement Rate",
				Description: fmt.Sprintf("Only %d out of %d team members (%.1f%%) were active this week.", active, totalUsers, rate),
				Metric:      fmt.Sprintf("%.1f%% engagement", rate),
				Trend:       TrendNegative,
				Severity:    SeverityWarning,
				Category:    CategoryCollaboration,
				Source:      SourceSlack,
				Confidence:  0.80,
				Recommendations: []string{
					"Implement team-building activities",
					"Create inclusive communication practices",
					"Address potential barriers to participation",
				},
			}
			if rate < 30 {
				in.ID = "very-low-engagement"
				in.Title = "Very Low Team Engagement Rate"
				in.Severity = SeverityCritical
				in.Confidence = 0.90
				in.Recommendations = append(in.Recommendations, "Consider one-on-one check-ins")
			}
			insights = append(insights, in)
		}
	}

	outside := 0
	for _, m := range s.Messages {
		if classify.IsOutsideBusinessHours(m.Timestamp, e.opts.Location) {
			outside++
		}
	}
	if share := ratio(outside, total) * 100; share > 30 {
		insights = append(insights, AnalyticsInsight{
			ID:          "after-hours-activity",
			Title:       "High After-Hours Activity",
			Description: fmt.Sprintf("%.1f%% of messages sent outside business hours (9 AM - 5 PM).", share),
			Metric:      fmt.Sprintf("%.1f%% after-hours", share),
			Trend:       TrendNegative,
			Severity:    SeverityWarning,
			Category:    CategoryBurnout,
			Source:      SourceSlack,
			Confidence:  0.75,
			Recommendations: []string{
				"Establish clear work-life boundaries",
				"Implement quiet hours policies",
				"Encourage healthy work habits",
			},
		})
	}

	admins := s.AdminCount()
	insights = append(insights, AnalyticsInsight{
		ID:          "team-structure",
		Title:       "Team Structure Overview",
		Description: fmt.Sprintf("Team consists of %d administrators and %d regular members.", admins, totalUsers-admins),
		Metric:      fmt.Sprintf("%d total members", totalUsers),
		Trend:       TrendStable,
		Severity:    SeverityInfo,
		Category:    CategoryLeadership,
		Source:      SourceSlack,
		Confidence:  0.95,
		Recommendations: []string{
			"Ensure balanced decision-making processes",
			"Maintain clear communication hierarchies",
			"Foster inclusive leadership practices",
		},
	})

	if total == 0 {
		insights = append(insights, AnalyticsInsight{
			ID:          "no-data",
			Title:       "No Message Data Available",
			Description: "No messages found for this week. This could indicate a quiet period or data export limitations.",
			Metric:      "0 messages",
			Trend:       TrendStable,
			Severity:    SeverityInfo,
			Category:    CategoryCommunication,
			Source:      SourceSlack,
			Confidence:  0.80,
			Recommendations: []string{
				"Verify Slack export data completeness",
				"Check if this was a holiday or quiet period",
				"Consider expanding data collection timeframe",
			},
		})
	}

	return insights
}

func activityLevel(total, channels int) *AnalyticsInsight {
	switch {
	case total < 10:
		return &AnalyticsInsight{
			ID:          "very-low-activity",
			Title:       "Very Low Team Activity",
			Description: fmt.Sprintf("Only %d messages this week across %d channels. This indicates minimal team communication.", total, channels),
			Metric:      fmt.Sprintf("%d messages", total),
			Trend:       TrendNegative,
			Severity:    SeverityCritical,
			Category:    CategoryCommunication,
			Source:      SourceSlack,
			Confidence:  0.95,
			Recommendations: []string{
				"Schedule team check-ins to boost engagement",
				"Create more interactive channels for team discussions",
				"Encourage asynchronous communication",
				"Consider team building activities",
			},
		}
	case total < 50:
		return &AnalyticsInsight{
			ID:          "low-activity",
			Title:       "Low Team Activity Detected",
			Description: fmt.Sprintf("Only %d messages this week across %d channels. This suggests reduced team engagement.", total, channels),
			Metric:      fmt.Sprintf("%d messages", total),
			Trend:       TrendNegative,
			Severity:    SeverityWarning,
			Category:    CategoryCommunication,
			Source:      SourceSlack,
			Confidence:  0.85,
			Recommendations: []string{
				"Schedule team check-ins to boost engagement",
				"Create more interactive channels for team discussions",
				"Encourage asynchronous communication",
			},
		}
	case total > 200:
		return &AnalyticsInsight{
			ID:          "high-activity",
			Title:       "High Team Engagement",
			Description: fmt.Sprintf("%d messages this week shows strong team communication patterns.", total),
			Metric:      fmt.Sprintf("%d messages", total),
			Trend:       TrendPositive,
			Severity:    SeverityInfo,
			Category:    CategoryCommunication,
			Source:      SourceSlack,
			Confidence:  0.90,
			Recommendations: []string{
				"Maintain current communication practices",
				"Consider implementing async-first policies",
				"Monitor for potential information overload",
			},
		}
	}
	return nil
}

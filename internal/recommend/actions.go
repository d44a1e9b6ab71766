package recommend

import "github.com/solvaholic/teampulse/internal/analytics"

// Action is a short, concrete next step derived from weekly activity.
type Action struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Activity thresholds for ActivityActions.
const (
	SlowReplyHours  = 6.0
	UnevenVoiceGini = 0.5
)

// ActivityActions suggests next steps from participation signals. It always
// returns at least one action.
func ActivityActions(a analytics.WeeklyActivity) []Action {
	var actions []Action
	if a.AvgFirstReplyHours != nil && *a.AvgFirstReplyHours > SlowReplyHours {
		actions = append(actions, Action{
			Title:  "Accelerate Replies",
			Detail: "Establish a responder rotation and define a fast-lane thread with a 4-hour SLA in key channels.",
		})
	}
	if a.Gini >= UnevenVoiceGini {
		actions = append(actions, Action{
			Title:  "Broaden Participation",
			Detail: "Invite short rotating updates from more team members to distribute voice across channels.",
		})
	}
	if a.HasAWSAlerts() {
		actions = append(actions, Action{
			Title:  "Review Cloud Spend",
			Detail: "Investigate AWS budget alerts and adjust thresholds or autoscaling policies; notify finance if overspending persists.",
		})
	}
	if len(actions) == 0 {
		actions = append(actions, Action{
			Title:  "Keep Momentum",
			Detail: "Current signals look healthy. Continue regular updates and timely replies.",
		})
	}
	return actions
}

// Package report assembles the weekly team-health report from a dataset.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solvaholic/teampulse/internal/analytics"
	"github.com/solvaholic/teampulse/internal/graph"
	"github.com/solvaholic/teampulse/internal/normalize"
	"github.com/solvaholic/teampulse/internal/recommend"
	"github.com/solvaholic/teampulse/internal/week"
)

// Source loads a dataset. Export directories, the local database and live
// Slack snapshots all satisfy it.
type Source interface {
	Load(ctx context.Context) (*normalize.Dataset, error)
}

// Report is everything computed for one week.
type Report struct {
	Week             string                       `json:"week"`
	Start            time.Time                    `json:"start"`
	End              time.Time                    `json:"end"`
	Metrics          analytics.TeamHealthMetrics  `json:"metrics"`
	Insights         []analytics.AnalyticsInsight `json:"insights"`
	ActivityInsights []analytics.AnalyticsInsight `json:"activityInsights"`
	Activity         analytics.WeeklyActivity     `json:"activity"`
	Network          graph.Stats                  `json:"network"`
	Recommendations  []recommend.Recommendation   `json:"recommendations"`
	Actions          []recommend.Action           `json:"actions"`
}

// Build computes the report for weekID. It fails only on an invalid week id.
func Build(ds *normalize.Dataset, weekID string, engine *analytics.Engine) (*Report, error) {
	w, err := week.Parse(weekID)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		engine = analytics.NewEngine(analytics.DefaultOptions())
	}

	msgs := w.Filter(ds.Messages)
	metrics := engine.ComputeMetrics(msgs, ds.Users, ds.Channels)
	insights := analytics.GenerateInsights(metrics, msgs)
	activityInsights := engine.GenerateActivityInsights(msgs, ds.Users, ds.Channels)
	activity := engine.ComputeActivity(msgs, ds.Users, ds.Channels, w.FilterAlerts(ds.Alerts))

	scope := analytics.Clean(msgs, ds.Users, ds.Channels)
	network := graph.BuildInteractionNetwork(scope.Messages, engine.Options().InteractionWindow)

	ctx := recommend.Context{
		Week:         w.String(),
		ActiveUsers:  scope.ActiveUsers(),
		TotalUsers:   len(scope.Users),
		ChannelCount: len(scope.Channels),
		AdminCount:   scope.AdminCount(),
	}
	// Critical activity insights can inject recommendations too
	all := append(append([]analytics.AnalyticsInsight{}, insights...), activityInsights...)

	return &Report{
		Week:             w.String(),
		Start:            w.Start(),
		End:              w.End(),
		Metrics:          metrics,
		Insights:         insights,
		ActivityInsights: activityInsights,
		Activity:         activity,
		Network:          network.Stats(),
		Recommendations:  recommend.GenerateRecommendations(metrics, all, ctx),
		Actions:          recommend.ActivityActions(activity),
	}, nil
}

// BuildAll builds one report per week id, at most limit at a time, and
// returns them in the order of weekIDs. limit <= 0 means no limit.
func BuildAll(ctx context.Context, ds *normalize.Dataset, weekIDs []string, engine *analytics.Engine, limit int) ([]*Report, error) {
	reports := make([]*Report, len(weekIDs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range weekIDs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Build(ds, id, engine)
			if err != nil {
				return fmt.Errorf("failed to build report for %s: %w", id, err)
			}
			slog.Debug("built report", "week", id, "messages", r.Activity.TotalMessages)
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// AvailableWeeks lists the week ids that contain at least one message.
func AvailableWeeks(ds *normalize.Dataset) []string {
	return week.Weeks(ds.Timestamps())
}

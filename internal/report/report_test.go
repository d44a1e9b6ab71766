package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solvaholic/teampulse/internal/analytics"
	"github.com/solvaholic/teampulse/internal/normalize"
	"github.com/solvaholic/teampulse/internal/week"
)

func dataset() *normalize.Dataset {
	// 2025-W28 is 2025-07-14 .. 2025-07-21
	mon := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)
	next := mon.AddDate(0, 0, 7)

	ds := &normalize.Dataset{
		Users: []normalize.User{
			{ID: "U1", DisplayName: "Ada", IsAdmin: true},
			{ID: "U2", DisplayName: "Grace"},
		},
		Channels: []normalize.Channel{
			{ID: "C1", Name: "general", Purpose: "Team coordination"},
		},
		Alerts: []normalize.Alert{
			{Channel: "general", Source: "aws", Summary: "AWS Budgets", Timestamp: mon},
			{Channel: "general", Source: "aws", Summary: "AWS Budgets", Timestamp: next},
		},
	}
	for i := 0; i < 6; i++ {
		user := "U1"
		if i%2 == 1 {
			user = "U2"
		}
		ds.Messages = append(ds.Messages,
			normalize.Message{ID: "a" + string(rune('0'+i)), UserID: user, ChannelID: "C1", Text: "can you help?", Timestamp: mon.Add(time.Duration(i) * 5 * time.Minute)},
			normalize.Message{ID: "b" + string(rune('0'+i)), UserID: user, ChannelID: "C1", Text: "shipped", Timestamp: next.Add(time.Duration(i) * 5 * time.Minute)},
		)
	}
	return ds
}

func TestBuild(t *testing.T) {
	r, err := Build(dataset(), "2025-W28", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Week != "2025-W28" || !r.Start.Equal(time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected week window %s %v", r.Week, r.Start)
	}
	if r.Activity.TotalMessages != 6 {
		t.Errorf("expected 6 messages in week, got %d", r.Activity.TotalMessages)
	}
	if len(r.Activity.Alerts) != 1 {
		t.Errorf("expected only this week's alert, got %d", len(r.Activity.Alerts))
	}
	if r.Metrics.HelpSeeking != 1 {
		t.Errorf("expected every message to seek help, got %v", r.Metrics.HelpSeeking)
	}
	if r.Network.Edges != 2 {
		t.Errorf("expected 2 network edges, got %+v", r.Network)
	}
	if len(r.Recommendations) == 0 || len(r.Recommendations) > 3 {
		t.Errorf("unexpected recommendation count %d", len(r.Recommendations))
	}
	found := false
	for _, a := range r.Actions {
		if a.Title == "Review Cloud Spend" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected cloud spend action, got %+v", r.Actions)
	}
	// Six messages is very low activity, a critical communication insight
	injected := false
	for _, rec := range r.Recommendations {
		if rec.ID == "communication-very-low-activity" || rec.ID == "communication-optimization" {
			injected = true
		}
	}
	if !injected {
		t.Errorf("expected a communication recommendation, got %+v", r.Recommendations)
	}
}

func TestBuildInvalidWeek(t *testing.T) {
	_, err := Build(dataset(), "2025-28", nil)
	if !errors.Is(err, week.ErrInvalidWeekIdentifier) {
		t.Errorf("expected ErrInvalidWeekIdentifier, got %v", err)
	}
}

func TestBuildEmptyWeek(t *testing.T) {
	r, err := Build(dataset(), "2024-W10", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Metrics.TeamStage != analytics.StageForming || r.Metrics.RiskLevel != analytics.RiskLow {
		t.Errorf("unexpected empty-week metrics %+v", r.Metrics)
	}
	last := r.ActivityInsights[len(r.ActivityInsights)-1]
	if last.ID != "no-data" {
		t.Errorf("expected no-data insight last, got %s", last.ID)
	}
}

func TestBuildAll(t *testing.T) {
	ds := dataset()
	weeks := AvailableWeeks(ds)
	if len(weeks) != 2 || weeks[0] != "2025-W28" || weeks[1] != "2025-W29" {
		t.Fatalf("unexpected weeks %v", weeks)
	}

	reports, err := BuildAll(context.Background(), ds, weeks, analytics.NewEngine(analytics.DefaultOptions()), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 2 || reports[0].Week != "2025-W28" || reports[1].Week != "2025-W29" {
		t.Fatalf("unexpected reports order")
	}
	if reports[1].Metrics.HelpSeeking != 0 {
		t.Errorf("expected no help-seeking in second week, got %v", reports[1].Metrics.HelpSeeking)
	}
}

func TestBuildAllInvalidWeek(t *testing.T) {
	_, err := BuildAll(context.Background(), dataset(), []string{"2025-W28", "bogus"}, nil, 0)
	if !errors.Is(err, week.ErrInvalidWeekIdentifier) {
		t.Errorf("expected ErrInvalidWeekIdentifier, got %v", err)
	}
}

func TestBuildAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildAll(ctx, dataset(), []string{"2025-W28"}, nil, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

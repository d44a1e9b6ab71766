package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solvaholic/teampulse/internal/export"
	"github.com/solvaholic/teampulse/internal/normalize"
)

func slackUser(id, realName string) normalize.SlackUser {
	u := normalize.SlackUser{ID: id, Name: strings.ToLower(realName), RealName: realName}
	return u
}

func TestStoreRoundTripThroughExportReader(t *testing.T) {
	s := New(t.TempDir())

	if err := s.SaveUsers("T1", []normalize.SlackUser{slackUser("U1", "Ada"), slackUser("U2", "Grace")}); err != nil {
		t.Fatal(err)
	}
	general := normalize.SlackChannel{ID: "C1", Name: "general", Members: []string{"U1", "U2"}}
	if err := s.SaveChannels("T1", []normalize.SlackChannel{general}); err != nil {
		t.Fatal(err)
	}

	// 2025-07-14 and 2025-07-15 UTC
	first := []normalize.SlackMessage{
		{Type: "message", User: "U1", Text: "hello", Timestamp: "1752487200.000100"},
		{Type: "message", User: "U2", Text: "next day", Timestamp: "1752573600.000000"},
	}
	n, err := s.SaveMessages("T1", "general", first)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 day files, got %d", n)
	}

	// A second fetch edits one message and adds another on the same day
	second := []normalize.SlackMessage{
		{Type: "message", User: "U1", Text: "hello, edited", Timestamp: "1752487200.000100"},
		{Type: "message", User: "U2", Text: "reply", Timestamp: "1752487300.000000"},
	}
	if _, err := s.SaveMessages("T1", "general", second); err != nil {
		t.Fatal(err)
	}

	ds, err := export.NewReader(s.WorkspaceDir("T1")).Load(context.Background())
	if err != nil {
		t.Fatalf("cache is not readable as an export: %v", err)
	}
	if len(ds.Messages) != 3 {
		t.Fatalf("expected 3 merged messages, got %+v", ds.Messages)
	}
	if ds.Messages[0].Text != "hello, edited" || ds.Messages[1].Text != "reply" {
		t.Errorf("unexpected merge result %+v", ds.Messages)
	}

	latest, err := s.LatestTS("T1", "general")
	if err != nil {
		t.Fatal(err)
	}
	if latest != "1752573600.000000" {
		t.Errorf("unexpected latest ts %q", latest)
	}
}

func TestLatestTSEmpty(t *testing.T) {
	s := New(t.TempDir())
	latest, err := s.LatestTS("T1", "general")
	if err != nil || latest != "" {
		t.Errorf("expected empty ts, got %q, %v", latest, err)
	}
}

func TestSaveMessagesSkipsBadTimestamps(t *testing.T) {
	s := New(t.TempDir())
	n, err := s.SaveMessages("T1", "general", []normalize.SlackMessage{{Text: "no ts"}})
	if err != nil || n != 0 {
		t.Errorf("expected nothing written, got %d, %v", n, err)
	}
}

func TestRejectsUnsafeChannelName(t *testing.T) {
	root := t.TempDir()
	s := New(filepath.Join(root, "cache"))
	msgs := []normalize.SlackMessage{{User: "U1", Text: "hi", Timestamp: "1752487200.000100"}}

	if _, err := s.SaveMessages("T1", "../../escape", msgs); err == nil {
		t.Error("expected error for unsafe channel name")
	}
	if _, err := os.Stat(filepath.Join(s.WorkspaceDir("T1"), "../../escape")); !os.IsNotExist(err) {
		t.Errorf("expected nothing written outside the store, got %v", err)
	}
	if _, err := s.LatestTS("T1", "../general"); err == nil {
		t.Error("expected error for unsafe channel name")
	}
}

func TestTSLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"999999999.000000", "1000000000.000000", true},
		{"1752487200.000100", "1752487200.000200", true},
		{"1752487200.000200", "1752487200.000100", false},
		{"bogus", "zzz", true},
	}
	for _, tt := range tests {
		t.Run(tt.a+"<"+tt.b, func(t *testing.T) {
			if got := tsLess(tt.a, tt.b); got != tt.want {
				t.Errorf("tsLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestWorkspaces(t *testing.T) {
	s := New(t.TempDir())

	ids, err := s.DiscoverWorkspaces()
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected no workspaces, got %v, %v", ids, err)
	}

	if err := s.SaveWorkspaceUser("T1", "U1", "ada", "Acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetWorkspaceUser("T2"); err == nil {
		t.Error("expected error for unknown workspace")
	}

	user, err := s.GetWorkspaceUser("T1")
	if err != nil {
		t.Fatal(err)
	}
	if user.UserName != "ada" || user.TeamName != "Acme" {
		t.Errorf("unexpected user %+v", user)
	}

	ids, err = s.DiscoverWorkspaces()
	if err != nil || len(ids) != 1 || ids[0] != "T1" {
		t.Errorf("unexpected workspaces %v, %v", ids, err)
	}

	info, err := os.Stat(filepath.Join(s.WorkspaceDir("T1"), "auth.json"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const usersJSON = `[
  {"id": "U1", "name": "ada", "real_name": "Ada Lovelace", "is_admin": true, "profile": {"email": "ada@example.com"}},
  {"id": "U2", "name": "grace", "profile": {"real_name": "Grace Hopper"}},
  {"id": "U3", "name": "svc-account"},
  {"id": "B1", "name": "deploybot", "is_bot": true}
]`

const channelsJSON = `[
  {"id": "C1", "name": "general", "members": ["U1", "U2"], "purpose": {"value": "Company-wide announcements"}},
  {"id": "C2", "name": "alerts", "members": ["U1"], "purpose": {"value": ""}},
  {"id": "C3", "name": "empty", "members": []}
]`

// writeExport lays out a small export under a temp dir.
func writeExport(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"users.json":    usersJSON,
		"channels.json": channelsJSON,
		"general/2025-07-14.json": `[
  {"type": "message", "user": "U1", "text": "morning <@U2>", "ts": "1752487200.000100"},
  {"type": "message", "user": "U2", "text": "hi!", "ts": "1752489000.000200", "reactions": [{"name": "wave", "count": 1}]},
  {"type": "message", "subtype": "channel_join", "user": "U2", "text": "joined", "ts": "1752489001.000000"},
  {"type": "message", "user": "U1", "text": "   ", "ts": "1752489002.000000"}
]`,
		"general/2025-07-21.json": `[
  {"type": "message", "user": "U2", "text": "new week", "ts": "1753092000.000000"}
]`,
		"general/notes.txt":       "ignored",
		"general/2025-07-15.json": `{not json`,
		"alerts/2025-07-15.json": `[
  {"type": "message", "subtype": "bot_message", "bot_id": "B1", "text": "", "ts": "1752570000.000000",
   "files": [{"id": "F1", "name": "AWS Budgets alert", "bot_id": "B1"}]}
]`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestReaderLoad(t *testing.T) {
	dir := writeExport(t)

	ds, err := NewReader(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ds.Users) != 3 {
		t.Errorf("expected 3 users (service account dropped), got %+v", ds.Users)
	}
	if !ds.Users[0].IsAdmin || ds.Users[0].Email != "ada@example.com" {
		t.Errorf("unexpected first user %+v", ds.Users[0])
	}
	if ds.Users[1].DisplayName != "Grace Hopper" {
		t.Errorf("expected profile real name, got %q", ds.Users[1].DisplayName)
	}
	if !ds.Users[2].IsBot {
		t.Errorf("expected bot to be kept and flagged, got %+v", ds.Users[2])
	}

	if len(ds.Channels) != 3 || ds.Channels[0].MemberCount != 2 {
		t.Errorf("unexpected channels %+v", ds.Channels)
	}

	if len(ds.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d: %+v", len(ds.Messages), ds.Messages)
	}
	first := ds.Messages[0]
	if first.ChannelID != "C1" || first.UserID != "U1" || len(first.Mentions) != 1 || first.Mentions[0] != "U2" {
		t.Errorf("unexpected first message %+v", first)
	}
	if ds.Messages[1].Reactions[0] != "wave" {
		t.Errorf("expected reaction to be carried, got %+v", ds.Messages[1].Reactions)
	}

	if len(ds.Alerts) != 1 || ds.Alerts[0].Source != "aws" || ds.Alerts[0].Channel != "alerts" {
		t.Errorf("unexpected alerts %+v", ds.Alerts)
	}
}

func TestReaderNotExport(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{name: "empty dir", files: nil},
		{name: "users only", files: map[string]string{"users.json": "[]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
					t.Fatal(err)
				}
			}
			_, err := NewReader(dir).Load(context.Background())
			if !errors.Is(err, ErrNotExport) {
				t.Errorf("expected ErrNotExport, got %v", err)
			}
		})
	}
}

func TestReaderMalformedIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := NewReader(dir).Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to parse users.json") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestReaderCanceled(t *testing.T) {
	dir := writeExport(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(dir).Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReaderSkipsChannelOutsideExport(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "export")
	files := map[string]string{
		"export/users.json": `[{"id": "U1", "name": "ada", "real_name": "Ada Lovelace"}]`,
		"export/channels.json": `[
  {"id": "C1", "name": "general", "members": ["U1"]},
  {"id": "C2", "name": "../outside", "members": ["U1"]}
]`,
		"export/general/2025-07-14.json": `[{"type": "message", "user": "U1", "text": "inside", "ts": "1752487200.000100"}]`,
		"outside/2025-07-14.json":        `[{"type": "message", "user": "U1", "text": "outside", "ts": "1752487300.000100"}]`,
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	ds, err := NewReader(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Messages) != 1 || ds.Messages[0].Text != "inside" {
		t.Errorf("expected only the in-export message, got %+v", ds.Messages)
	}
}

func TestAvailableWeeks(t *testing.T) {
	dir := writeExport(t)

	weeks, err := NewReader(dir).AvailableWeeks()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(weeks, ",") != "2025-W28,2025-W29" {
		t.Errorf("unexpected weeks %v", weeks)
	}
}

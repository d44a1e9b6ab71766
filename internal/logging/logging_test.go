package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hidden")
	logger.Info("imported", "messages", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected json record: %v", err)
	}
	if rec["msg"] != "imported" || rec["messages"] != float64(3) {
		t.Errorf("unexpected record %v", rec)
	}

	buf.Reset()
	logger, err = New(&buf, "debug", "text")
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("skipping file", "file", "notes.txt")
	if !strings.Contains(buf.String(), "file=notes.txt") {
		t.Errorf("unexpected text record %q", buf.String())
	}

	if _, err := New(&buf, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	if err := Setup(&buf, "warn", "text"); err != nil {
		t.Fatal(err)
	}
	slog.Info("quiet")
	slog.Warn("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if err := Setup(&buf, "nope", "text"); err == nil {
		t.Error("expected error for bad level")
	}
}

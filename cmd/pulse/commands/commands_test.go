package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/solvaholic/teampulse/internal/normalize"
	"github.com/solvaholic/teampulse/internal/report"
)

// writeExport lays out a two-week export: week 2025-W28 in #general and
// #random, one message in 2025-W29.
func writeExport(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"users.json": `[
  {"id": "U1", "name": "ada", "real_name": "Ada Lovelace", "is_admin": true},
  {"id": "U2", "name": "grace", "real_name": "Grace Hopper"},
  {"id": "U3", "name": "alan", "real_name": "Alan Turing"}
]`,
		"channels.json": `[
  {"id": "C1", "name": "general", "members": ["U1", "U2", "U3"], "purpose": {"value": "Team chat"}},
  {"id": "C2", "name": "random", "members": ["U1", "U2"], "purpose": {"value": "Anything"}}
]`,
		"general/2025-07-14.json": `[
  {"type": "message", "user": "U1", "text": "Can anyone help me with the deploy?", "ts": "1752487200.000100"},
  {"type": "message", "user": "U2", "text": "Sure, thanks for asking <@U1>", "ts": "1752488100.000200"},
  {"type": "message", "user": "U3", "text": "I made a mistake in the config, fixing now", "ts": "1752489000.000300"}
]`,
		"random/2025-07-15.json": `[
  {"type": "message", "user": "U2", "text": "What if we tried a new idea for standup?", "ts": "1752573600.000100"},
  {"type": "message", "user": "U1", "text": "Great idea, thanks", "ts": "1752574500.000200"}
]`,
		"general/2025-07-21.json": `[
  {"type": "message", "user": "U2", "text": "new week", "ts": "1753092000.000000"}
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

// resetFlags restores every flag to its default, since flag variables are
// package state shared by consecutive runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	// Isolate from any config in the home directory
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "config")))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestWorkflow(t *testing.T) {
	export := writeExport(t)
	dbFile := filepath.Join(t.TempDir(), "pulse.db")

	t.Run("weeks", func(t *testing.T) {
		out, _, err := run(t, "weeks", "--export", export)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var weeks []string
		if err := json.Unmarshal([]byte(out), &weeks); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if strings.Join(weeks, ",") != "2025-W28,2025-W29" {
			t.Errorf("unexpected weeks %v", weeks)
		}
	})

	t.Run("analyze and save", func(t *testing.T) {
		out, errOut, err := run(t, "analyze", "--export", export, "--week", "2025-W28", "--save", "--db", dbFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var r report.Report
		if err := json.Unmarshal([]byte(out), &r); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if r.Week != "2025-W28" || r.Activity.TotalMessages != 5 {
			t.Errorf("unexpected report week=%s messages=%d", r.Week, r.Activity.TotalMessages)
		}
		if len(r.Recommendations) == 0 {
			t.Error("expected at least one recommendation")
		}
		if !strings.Contains(errOut, "Saved snapshot") {
			t.Errorf("expected progress on stderr, got %q", errOut)
		}
	})

	t.Run("analyze defaults to latest week", func(t *testing.T) {
		out, _, err := run(t, "analyze", "--export", export)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `"week": "2025-W29"`) {
			t.Errorf("expected latest week, got %s", out)
		}
	})

	t.Run("analyze all as table", func(t *testing.T) {
		out, _, err := run(t, "analyze", "--export", export, "--all", "--format", "table")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(out, "WEEK") || !strings.Contains(out, "2025-W28") || !strings.Contains(out, "2025-W29") {
			t.Errorf("unexpected table:\n%s", out)
		}
	})

	t.Run("import", func(t *testing.T) {
		out, errOut, err := run(t, "import", "--export", export, "--db", dbFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(errOut, "Reading export") || strings.Contains(out, "Reading export") {
			t.Errorf("expected progress on stderr only, got stdout %q stderr %q", out, errOut)
		}
		var stats struct {
			Users, Channels, Messages, Signals int
		}
		if err := json.Unmarshal([]byte(out), &stats); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if stats.Users != 3 || stats.Channels != 2 || stats.Messages != 6 {
			t.Errorf("unexpected import stats %+v", stats)
		}
		if stats.Signals == 0 {
			t.Error("expected classified signals")
		}
	})

	t.Run("messages by week and channel", func(t *testing.T) {
		out, _, err := run(t, "messages", "--db", dbFile, "--week", "2025-W28", "--channel", "general")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var msgs []normalize.Message
		if err := json.Unmarshal([]byte(out), &msgs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(msgs))
		}
		for _, m := range msgs {
			if m.ChannelID != "C1" {
				t.Errorf("unexpected channel %s", m.ChannelID)
			}
		}
		if !msgs[0].Timestamp.Before(msgs[2].Timestamp) {
			t.Error("expected week listing in ascending order")
		}
	})

	t.Run("messages table resolves names", func(t *testing.T) {
		out, _, err := run(t, "messages", "--db", dbFile, "--search", "mistake", "--format", "table")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Alan Turing") || !strings.Contains(out, "#general") {
			t.Errorf("expected names in table:\n%s", out)
		}
	})

	t.Run("messages jsonl", func(t *testing.T) {
		out, _, err := run(t, "messages", "--db", dbFile, "--format", "jsonl", "--limit", "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 {
			t.Errorf("expected 2 lines, got %d", len(lines))
		}
	})

	t.Run("analyze from database", func(t *testing.T) {
		out, _, err := run(t, "analyze", "--source", "db", "--db", dbFile, "--week", "2025-W28")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `"totalMessages": 5`) {
			t.Errorf("expected same week from database, got %s", out)
		}
	})

	t.Run("history", func(t *testing.T) {
		out, _, err := run(t, "history", "--db", dbFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var snaps []struct {
			ID   string `json:"id"`
			Week string `json:"week"`
		}
		if err := json.Unmarshal([]byte(out), &snaps); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(snaps) != 1 || snaps[0].Week != "2025-W28" {
			t.Fatalf("unexpected snapshots %+v", snaps)
		}

		out, _, err = run(t, "history", "--db", dbFile, "--id", snaps[0].ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `"recommendations"`) {
			t.Errorf("expected full report, got %s", out)
		}
	})

	t.Run("status", func(t *testing.T) {
		out, _, err := run(t, "status", "--db", dbFile, "--format", "table")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Messages:", "Snapshots:", "Span:"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in:\n%s", want, out)
			}
		}
	})

	t.Run("insights yaml", func(t *testing.T) {
		out, _, err := run(t, "insights", "--export", export, "--week", "2025-W28", "--format", "yaml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "severity:") {
			t.Errorf("expected YAML insights, got %s", out)
		}
	})

	t.Run("recommend", func(t *testing.T) {
		out, _, err := run(t, "recommend", "--export", export, "--week", "2025-W28")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var rec recommendOutput
		if err := json.Unmarshal([]byte(out), &rec); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if rec.Week != "2025-W28" || len(rec.Recommendations) == 0 || len(rec.Actions) == 0 {
			t.Errorf("unexpected output %+v", rec)
		}
	})
}

func TestCommandErrors(t *testing.T) {
	export := writeExport(t)
	dbFile := filepath.Join(t.TempDir(), "pulse.db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no export", []string{"analyze"}, "pass --export"},
		{"unknown format", []string{"weeks", "--export", export, "--format", "xml"}, "unknown format: xml"},
		{"unknown source", []string{"analyze", "--source", "s3"}, "unknown source: s3"},
		{"bad week", []string{"analyze", "--export", export, "--week", "2025-28"}, "invalid week identifier"},
		{"week and all", []string{"analyze", "--export", export, "--week", "2025-W28", "--all"}, "mutually exclusive"},
		{"unknown channel", []string{"messages", "--db", dbFile, "--channel", "nope"}, "no channel found"},
		{"bad since", []string{"messages", "--db", dbFile, "--since", "yesterday"}, "invalid --since value"},
		{"missing snapshot", []string{"history", "--db", dbFile, "--id", "nope"}, "snapshot not found"},
		{"fetch without source", []string{"fetch"}, "please specify a source"},
		{"fetch without workspace", []string{"fetch", "slack", "--db", dbFile}, "no workspace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestOutputFormats(t *testing.T) {
	defer func() { outputFormat = "json" }()

	rows := []map[string]int{{"a": 1}, {"a": 2}}
	table := func(w io.Writer) { fmt.Fprintln(w, "A\tB") }

	tests := []struct {
		format string
		table  tableFunc
		want   string
	}{
		{"json", table, "[\n  {\n    \"a\": 1\n  },\n  {\n    \"a\": 2\n  }\n]\n"},
		{"jsonl", table, "{\"a\":1}\n{\"a\":2}\n"},
		{"yaml", table, "- a: 1\n- a: 2\n"},
		{"table", table, "A  B\n"},
		{"table", nil, "[\n  {\n    \"a\": 1\n  },\n  {\n    \"a\": 2\n  }\n]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			outputFormat = tt.format
			var buf bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&buf)
			if err := output(cmd, rows, tt.table); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}

	t.Run("jsonl non-slice", func(t *testing.T) {
		outputFormat = "jsonl"
		var buf bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&buf)
		if err := output(cmd, map[string]int{"a": 1}, nil); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "{\"a\":1}\n" {
			t.Errorf("unexpected %q", buf.String())
		}
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"line one\nline two", 40, "line one line two"},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

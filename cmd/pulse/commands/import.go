package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/classify"
	"github.com/solvaholic/teampulse/internal/db"
	"github.com/solvaholic/teampulse/internal/export"
	"github.com/solvaholic/teampulse/internal/normalize"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a Slack export into the local database",
	Long: `Import loads a Slack workspace export, classifies every message and stores
users, channels, messages, alerts and signals in the local database.

Re-importing the same export is safe: rows are upserted by id.

Examples:
  pulse import --export ./slack-export
  pulse import --export ~/.teampulse/raw/slack/workspaces/T0123 --db ./team.db`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if settings.ExportPath == "" {
		return fmt.Errorf("no export directory: pass --export or set export.path")
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := importExport(cmd, database, settings.ExportPath)
	if err != nil {
		return err
	}

	return output(cmd, stats, func(w io.Writer) {
		fmt.Fprintln(w, "USERS\tCHANNELS\tMESSAGES\tALERTS\tSIGNALS")
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", stats.Users, stats.Channels, stats.Messages, stats.Alerts, stats.Signals)
	})
}

// importExport reads the export at path and upserts it, with signals, into
// database.
func importExport(cmd *cobra.Command, database *db.DB, path string) (*db.ImportStats, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, err
	}
	opts := engine.Options()
	lex := opts.Lexicon

	fmt.Fprintf(cmd.ErrOrStderr(), "Reading export %s...\n", path)
	ds, err := loadDataset(cmd.Context(), export.NewReader(path))
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Importing %d messages into %s...\n", len(ds.Messages), database.Path())
	stats, err := database.Import(cmd.Context(), ds, func(msg *normalize.Message) []classify.Classification {
		return classify.ClassifyMessage(msg, &lex, opts.Location)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import export: %w", err)
	}
	return stats, nil
}

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute the weekly team-health report",
	Long: `Analyze computes team-health metrics, insights and recommendations for a week.

Without --week the latest week that has messages is used. --all builds a
report for every available week.

Examples:
  # Latest week from an export
  pulse analyze --export ./slack-export

  # One week, saved to the local database
  pulse analyze --export ./slack-export --week 2025-W28 --save

  # Every week from the imported database, as a table
  pulse analyze --source db --all --format table`,
	RunE: runAnalyze,
}

var (
	analyzeWeek        string
	analyzeAll         bool
	analyzeSave        bool
	analyzeSource      string
	analyzeConcurrency int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeWeek, "week", "w", "", "Week to analyze (YYYY-WNN, default: latest)")
	analyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "Analyze every available week")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Save each report as a snapshot in the database")
	analyzeCmd.Flags().StringVar(&analyzeSource, "source", sourceExport, "Dataset source: export or db")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 0, "Weeks analyzed in parallel with --all (default: analysis.concurrency)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeAll && analyzeWeek != "" {
		return fmt.Errorf("--week and --all are mutually exclusive")
	}

	src, database, closeFn, err := openSource(analyzeSource)
	if err != nil {
		return err
	}
	defer closeFn()

	engine, err := newEngine()
	if err != nil {
		return err
	}
	ds, err := loadDataset(cmd.Context(), src)
	if err != nil {
		return err
	}

	var reports []*report.Report
	if analyzeAll {
		limit := analyzeConcurrency
		if limit <= 0 {
			limit = settings.Concurrency
		}
		reports, err = report.BuildAll(cmd.Context(), ds, report.AvailableWeeks(ds), engine, limit)
		if err != nil {
			return err
		}
	} else {
		id, err := resolveWeek(ds, analyzeWeek)
		if err != nil {
			return err
		}
		r, err := report.Build(ds, id, engine)
		if err != nil {
			return err
		}
		reports = []*report.Report{r}
	}

	if analyzeSave {
		if database == nil {
			if database, err = openDB(); err != nil {
				return err
			}
			defer database.Close()
		}
		source := analyzeSource
		if source == "" {
			source = sourceExport
		}
		for _, r := range reports {
			snap, err := database.SaveSnapshot(r.Week, source, r.Metrics, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved snapshot %s for %s\n", snap.ID, r.Week)
		}
	}

	table := func(w io.Writer) {
		fmt.Fprintln(w, "WEEK\tRISK\tSTAGE\tPSYCH SAFETY\tBURNOUT\tRESPONSE (H)\tWARNINGS\tRECOMMENDATIONS")
		for _, r := range reports {
			m := r.Metrics
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.1f\t%d\t%d\n",
				r.Week, m.RiskLevel, m.TeamStage, m.PsychologicalSafety, m.BurnoutRisk,
				m.ResponseTime, len(m.EarlyWarnings), len(r.Recommendations))
		}
	}
	if analyzeAll {
		return output(cmd, reports, table)
	}
	return output(cmd, reports[0], table)
}

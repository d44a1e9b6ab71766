package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved report snapshots",
	Long: `History lists reports saved with pulse analyze --save, oldest week first.

Examples:
  pulse history --format table
  pulse history --week 2025-W28
  pulse history --id 6f1c... > report.json`,
	RunE: runHistory,
}

var (
	historyWeek  string
	historyLimit int
	historyID    string
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historyWeek, "week", "w", "", "Only snapshots for this week")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of snapshots")
	historyCmd.Flags().StringVar(&historyID, "id", "", "Show one snapshot with its full report")
}

func runHistory(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	if historyID != "" {
		snap, err := database.GetSnapshot(historyID)
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("snapshot not found: %s", historyID)
		}
		return output(cmd, snap, nil)
	}

	snaps, err := database.ListSnapshots(historyWeek, historyLimit)
	if err != nil {
		return err
	}

	return output(cmd, snaps, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tWEEK\tSOURCE\tCREATED\tRISK\tSTAGE\tPSYCH SAFETY\tBURNOUT")
		for _, s := range snaps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\n",
				s.ID, s.Week, s.Source, s.CreatedAt.Format("2006-01-02 15:04"),
				s.RiskLevel, s.TeamStage, s.PsychologicalSafety, s.BurnoutRisk)
		}
	})
}

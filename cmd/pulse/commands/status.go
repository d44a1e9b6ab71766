package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/db"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local database statistics",
	Long: `Status reports what the local database holds: row counts, the span of
imported messages and how often each signal was detected.`,
	RunE: runStatus,
}

type statusOutput struct {
	Path    string           `json:"path"`
	Stats   *db.Stats        `json:"stats"`
	Signals []db.SignalCount `json:"signals"`
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := database.Stats()
	if err != nil {
		return err
	}
	signals, err := database.CountSignals()
	if err != nil {
		return err
	}
	out := statusOutput{Path: database.Path(), Stats: stats, Signals: signals}

	return output(cmd, out, func(w io.Writer) {
		fmt.Fprintf(w, "Database:\t%s\n", out.Path)
		fmt.Fprintf(w, "Size:\t%.2f MB\n", float64(stats.DatabaseSize)/(1024*1024))
		fmt.Fprintf(w, "Messages:\t%d\n", stats.MessageCount)
		fmt.Fprintf(w, "Users:\t%d\n", stats.UserCount)
		fmt.Fprintf(w, "Channels:\t%d\n", stats.ChannelCount)
		fmt.Fprintf(w, "Alerts:\t%d\n", stats.AlertCount)
		fmt.Fprintf(w, "Snapshots:\t%d\n", stats.SnapshotCount)
		if stats.EarliestMessage != nil && stats.LatestMessage != nil {
			fmt.Fprintf(w, "Span:\t%s to %s\n",
				stats.EarliestMessage.Format("2006-01-02"), stats.LatestMessage.Format("2006-01-02"))
		}
		for _, s := range signals {
			fmt.Fprintf(w, "Signal %s:\t%d\n", s.Signal, s.Messages)
		}
	})
}

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Show recommendations for a week",
	Long: `Recommend prints prioritized, research-backed recommendations for a week
followed by concrete next steps drawn from participation.

Examples:
  pulse recommend --export ./slack-export
  pulse recommend --source db --week 2025-W28 --format yaml`,
	RunE: runRecommend,
}

var (
	recommendWeek   string
	recommendSource string
)

type recommendOutput struct {
	Week            string                     `json:"week"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Actions         []recommend.Action         `json:"actions"`
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVarP(&recommendWeek, "week", "w", "", "Week (YYYY-WNN, default: latest)")
	recommendCmd.Flags().StringVar(&recommendSource, "source", sourceExport, "Dataset source: export or db")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	r, err := buildReport(cmd.Context(), recommendSource, recommendWeek)
	if err != nil {
		return err
	}

	out := recommendOutput{Week: r.Week, Recommendations: r.Recommendations, Actions: r.Actions}
	return output(cmd, out, func(w io.Writer) {
		fmt.Fprintln(w, "PRIORITY\tTITLE\tIMPACT\tTIMEFRAME")
		for _, rec := range out.Recommendations {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.Priority, truncate(rec.Title, 50), rec.Impact, rec.Timeframe)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ACTION\tDETAIL")
		for _, a := range out.Actions {
			fmt.Fprintf(w, "%s\t%s\n", a.Title, truncate(a.Detail, 80))
		}
	})
}

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/analytics"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show insights for a week",
	Long: `Insights lists the findings behind a week's report: metric-driven insights
first, then activity insights.

Examples:
  pulse insights --export ./slack-export --week 2025-W28 --format table`,
	RunE: runInsights,
}

var (
	insightsWeek   string
	insightsSource string
)

func init() {
	rootCmd.AddCommand(insightsCmd)

	insightsCmd.Flags().StringVarP(&insightsWeek, "week", "w", "", "Week (YYYY-WNN, default: latest)")
	insightsCmd.Flags().StringVar(&insightsSource, "source", sourceExport, "Dataset source: export or db")
}

func runInsights(cmd *cobra.Command, args []string) error {
	r, err := buildReport(cmd.Context(), insightsSource, insightsWeek)
	if err != nil {
		return err
	}

	all := append(append([]analytics.AnalyticsInsight{}, r.Insights...), r.ActivityInsights...)
	return output(cmd, all, func(w io.Writer) {
		fmt.Fprintln(w, "SEVERITY\tCATEGORY\tSOURCE\tTITLE\tMETRIC")
		for _, in := range all {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", in.Severity, in.Category, in.Source, truncate(in.Title, 50), in.Metric)
		}
	})
}

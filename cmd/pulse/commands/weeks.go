package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/export"
	"github.com/solvaholic/teampulse/internal/report"
)

var weeksCmd = &cobra.Command{
	Use:   "weeks",
	Short: "List weeks that contain messages",
	Long: `List the week identifiers (YYYY-WNN) covered by the dataset.

Examples:
  pulse weeks --export ./slack-export
  pulse weeks --source db --format table`,
	RunE: runWeeks,
}

var weeksSource string

func init() {
	rootCmd.AddCommand(weeksCmd)

	weeksCmd.Flags().StringVar(&weeksSource, "source", sourceExport, "Dataset source: export or db")
}

func runWeeks(cmd *cobra.Command, args []string) error {
	src, _, closeFn, err := openSource(weeksSource)
	if err != nil {
		return err
	}
	defer closeFn()

	var weeks []string
	if r, ok := src.(*export.Reader); ok {
		// Day-file names are enough for an export
		weeks, err = r.AvailableWeeks()
		if err != nil {
			return err
		}
	} else {
		ds, err := loadDataset(cmd.Context(), src)
		if err != nil {
			return err
		}
		weeks = report.AvailableWeeks(ds)
	}
	if weeks == nil {
		weeks = []string{}
	}

	return output(cmd, weeks, func(w io.Writer) {
		fmt.Fprintln(w, "WEEK")
		for _, id := range weeks {
			fmt.Fprintln(w, id)
		}
	})
}

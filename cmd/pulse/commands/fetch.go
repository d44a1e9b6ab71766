package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/cache"
	"github.com/solvaholic/teampulse/internal/db"
	"github.com/solvaholic/teampulse/internal/slack"
	"github.com/solvaholic/teampulse/internal/week"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Snapshot a workspace from a live source",
	Long: `Fetch pulls users, channels and channel history from a live workspace and
writes them under ~/.teampulse/raw in the same layout as a Slack export, so
the result can be analyzed with --export.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("please specify a source: slack")
	},
}

var fetchSlackCmd = &cobra.Command{
	Use:   "slack",
	Short: "Snapshot a Slack workspace",
	Long: `Fetch a Slack workspace using the session of the local Slack desktop app.

Channels resume from the newest message already cached, so repeated runs
only pull what is new. Requests are rate limited locally, with state kept
in the database, to stay well under Slack's published limits.

Examples:
  # Last 7 days of every public channel
  pulse fetch slack --workspace myteam

  # Two channels since a week, then import into the database
  pulse fetch slack --workspace myteam --channel general --channel eng --since 2025-W28 --import`,
	RunE: runFetchSlack,
}

var (
	fetchWorkspace       string
	fetchSince           string
	fetchChannels        []string
	fetchIncludeArchived bool
	fetchBackoff         time.Duration
	fetchConcurrency     int
	fetchImport          bool
)

type fetchOutput struct {
	*slack.FetchStats
	Path   string          `json:"path"`
	Import *db.ImportStats `json:"import,omitempty"`
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.AddCommand(fetchSlackCmd)

	fetchSlackCmd.Flags().StringVar(&fetchWorkspace, "workspace", "", "Slack workspace name (default: fetch.slack.workspace)")
	fetchSlackCmd.Flags().StringVar(&fetchSince, "since", "", "Start date for channels with nothing cached (default: fetch.slack.days)")
	fetchSlackCmd.Flags().StringSliceVar(&fetchChannels, "channel", nil, "Channel name to fetch (can be repeated, default: all)")
	fetchSlackCmd.Flags().BoolVar(&fetchIncludeArchived, "include-archived", false, "Include archived channels")
	fetchSlackCmd.Flags().DurationVar(&fetchBackoff, "backoff", 10*time.Second, "Wait between rate limit checks (0 fails instead of waiting)")
	fetchSlackCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 2, "Channels fetched in parallel")
	fetchSlackCmd.Flags().BoolVar(&fetchImport, "import", false, "Import the snapshot into the database afterwards")
}

func runFetchSlack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	workspace := fetchWorkspace
	if workspace == "" {
		workspace = settings.SlackWorkspace
	}
	if workspace == "" {
		return fmt.Errorf("no workspace: pass --workspace or set fetch.slack.workspace")
	}

	since := fetchSince
	if since == "" {
		since = strconv.Itoa(settings.SlackDays) + "d"
	}
	sinceTime, err := week.ParseSince(since, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}

	root, err := cache.DefaultRoot()
	if err != nil {
		return err
	}
	store := cache.New(root)

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Authenticating with Slack workspace '%s'...\n", workspace)
	auth, err := slack.Authenticate(ctx, workspace)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Authenticated as %s in %s\n", auth.UserName, auth.TeamName)

	if err := store.SaveWorkspaceUser(auth.TeamID, auth.UserID, auth.UserName, auth.TeamName); err != nil {
		return fmt.Errorf("failed to cache workspace user: %w", err)
	}

	client := auth.Client.WithLimiter(database)
	client.Backoff = fetchBackoff

	fmt.Fprintf(cmd.ErrOrStderr(), "Fetching messages since %s...\n", sinceTime.Format("2006-01-02"))
	stats, err := slack.Snapshot(ctx, client, store, slack.FetchOptions{
		Since:           slack.SinceTS(sinceTime),
		Channels:        fetchChannels,
		IncludeArchived: fetchIncludeArchived,
		Concurrency:     fetchConcurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch workspace: %w", err)
	}

	out := fetchOutput{FetchStats: stats, Path: store.WorkspaceDir(stats.TeamID)}
	if fetchImport {
		out.Import, err = importExport(cmd, database, out.Path)
		if err != nil {
			return err
		}
	}

	return output(cmd, out, func(w io.Writer) {
		fmt.Fprintln(w, "TEAM\tUSERS\tCHANNELS\tMESSAGES\tDAY FILES\tPATH")
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n", stats.TeamID, stats.Users, stats.Channels, stats.Messages, stats.DayFiles, out.Path)
	})
}

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/db"
	"github.com/solvaholic/teampulse/internal/week"
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Query imported messages",
	Long: `Messages queries the local database for imported messages.

Examples:
  # Everything said in #general during a week
  pulse messages --week 2025-W28 --channel general

  # Recent stress signals
  pulse messages --signal stress --since 7d --format table

  # Substring search with pagination
  pulse messages --search "deploy" --limit 20 --offset 40`,
	RunE: runMessages,
}

var (
	messagesWeek    string
	messagesChannel string
	messagesUser    string
	messagesSignal  string
	messagesSince   string
	messagesSearch  string
	messagesLimit   int
	messagesOffset  int
)

func init() {
	rootCmd.AddCommand(messagesCmd)

	messagesCmd.Flags().StringVarP(&messagesWeek, "week", "w", "", "Only messages in this week (YYYY-WNN)")
	messagesCmd.Flags().StringVar(&messagesChannel, "channel", "", "Filter by channel name")
	messagesCmd.Flags().StringVar(&messagesUser, "user", "", "Filter by user ID")
	messagesCmd.Flags().StringVar(&messagesSignal, "signal", "", "Only messages carrying this signal (e.g. stress, help_seeking)")
	messagesCmd.Flags().StringVar(&messagesSince, "since", "", "Start date (YYYY-MM-DD, YYYY-WNN or relative like 7d)")
	messagesCmd.Flags().StringVar(&messagesSearch, "search", "", "Substring search on message text")
	messagesCmd.Flags().IntVar(&messagesLimit, "limit", 100, "Maximum number of results")
	messagesCmd.Flags().IntVar(&messagesOffset, "offset", 0, "Offset for pagination")
}

func runMessages(cmd *cobra.Command, args []string) error {
	if messagesWeek != "" && messagesSince != "" {
		return fmt.Errorf("--week and --since are mutually exclusive")
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	opts := db.SelectMessagesOptions{
		Limit:  messagesLimit,
		Offset: messagesOffset,
	}

	if messagesWeek != "" {
		w, err := week.Parse(messagesWeek)
		if err != nil {
			return err
		}
		start, end := w.Start(), w.End()
		opts.Since, opts.Until = &start, &end
		opts.Ascending = true
	}
	if messagesSince != "" {
		since, err := week.ParseSince(messagesSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		opts.Since = &since
	}

	if messagesChannel != "" {
		ch, err := database.GetChannelByName(messagesChannel)
		if err != nil {
			return fmt.Errorf("failed to find channel '%s': %w", messagesChannel, err)
		}
		if ch == nil {
			return fmt.Errorf("no channel found with name '%s'", messagesChannel)
		}
		opts.ChannelID = &ch.ID
	}
	if messagesUser != "" {
		opts.UserID = &messagesUser
	}
	if messagesSignal != "" {
		opts.Signal = &messagesSignal
	}
	if messagesSearch != "" {
		opts.SearchText = &messagesSearch
	}

	messages, err := database.SelectMessages(opts)
	if err != nil {
		return err
	}

	return output(cmd, messages, func(w io.Writer) {
		users := map[string]string{}
		channels := map[string]string{}
		if list, err := database.ListUsers(); err == nil {
			for _, u := range list {
				users[u.ID] = u.DisplayName
			}
		}
		if list, err := database.ListChannels(); err == nil {
			for _, c := range list {
				channels[c.ID] = c.Name
			}
		}
		name := func(idx map[string]string, id string) string {
			if n, ok := idx[id]; ok && n != "" {
				return n
			}
			return id
		}

		fmt.Fprintln(w, "TIMESTAMP\tUSER\tCHANNEL\tTEXT")
		for _, m := range messages {
			fmt.Fprintf(w, "%s\t%s\t#%s\t%s\n",
				m.Timestamp.Format("2006-01-02 15:04"),
				name(users, m.UserID),
				name(channels, m.ChannelID),
				truncate(m.Text, 60))
		}
	})
}

package slack

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/solvaholic/teampulse/internal/cache"
	"github.com/solvaholic/teampulse/internal/normalize"
)

// FetchOptions select what a snapshot fetch pulls.
type FetchOptions struct {
	// Since is the earliest ts to fetch on a channel with nothing cached.
	Since string
	// Channels limits the fetch to these channel names; empty means all.
	Channels        []string
	IncludeArchived bool
	Concurrency     int
}

// FetchStats summarises a snapshot fetch.
type FetchStats struct {
	TeamID   string `json:"teamId"`
	Users    int    `json:"users"`
	Channels int    `json:"channels"`
	Messages int    `json:"messages"`
	DayFiles int    `json:"dayFiles"`
}

// Snapshot writes users, channels and new channel history into store in
// export layout. Channels resume from their newest cached message.
func Snapshot(ctx context.Context, c *Client, store *cache.Store, opts FetchOptions) (*FetchStats, error) {
	teamID := c.TeamID()
	stats := &FetchStats{TeamID: teamID}

	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.SaveUsers(teamID, users); err != nil {
		return nil, err
	}
	stats.Users = len(users)

	channels, err := c.ListChannels(ctx, opts.IncludeArchived)
	if err != nil {
		return nil, err
	}
	if err := store.SaveChannels(teamID, channels); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(opts.Channels))
	for _, name := range opts.Channels {
		wanted[name] = true
	}
	var selected []normalize.SlackChannel
	for _, ch := range channels {
		if len(wanted) > 0 && !wanted[ch.Name] {
			continue
		}
		if !normalize.IsSafeChannelDir(ch.Name) {
			slog.Debug("skipping channel with unsafe directory name", "id", ch.ID, "channel", ch.Name)
			continue
		}
		selected = append(selected, ch)
	}
	stats.Channels = len(selected)

	type result struct{ messages, files int }
	results := make([]result, len(selected))

	g, ctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 2
	}
	g.SetLimit(limit)
	for i, ch := range selected {
		g.Go(func() error {
			oldest, err := store.LatestTS(teamID, ch.Name)
			if err != nil {
				return err
			}
			if oldest == "" {
				oldest = opts.Since
			}
			msgs, err := c.FetchHistory(ctx, ch.ID, oldest)
			if err != nil {
				return fmt.Errorf("channel %s: %w", ch.Name, err)
			}
			files, err := store.SaveMessages(teamID, ch.Name, msgs)
			if err != nil {
				return err
			}
			slog.Debug("fetched channel history", "channel", ch.Name, "oldest", oldest, "messages", len(msgs))
			results[i] = result{messages: len(msgs), files: files}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		stats.Messages += r.messages
		stats.DayFiles += r.files
	}
	return stats, nil
}

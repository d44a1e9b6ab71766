// Package export reads Slack workspace export directories.
//
// An export holds users.json, channels.json and one directory per channel
// named after the channel, containing YYYY-MM-DD.json day files.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solvaholic/teampulse/internal/normalize"
	"github.com/solvaholic/teampulse/internal/week"
)

// ErrNotExport is returned when a directory lacks users.json or channels.json.
var ErrNotExport = errors.New("not a slack export directory")

// DefaultConcurrency bounds how many channel directories load at once.
const DefaultConcurrency = 4

var dayFilePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.json$`)

// Reader loads an export directory.
type Reader struct {
	Path        string
	Concurrency int
}

// NewReader creates a reader for the export at path.
func NewReader(path string) *Reader {
	return &Reader{Path: path, Concurrency: DefaultConcurrency}
}

// channelData is what one channel directory yields.
type channelData struct {
	messages []normalize.Message
	alerts   []normalize.Alert
	dropped  int
}

// Load reads users, channels and every channel's day files.
func (r *Reader) Load(ctx context.Context) (*normalize.Dataset, error) {
	users, err := ReadUsers(r.Path)
	if err != nil {
		return nil, err
	}
	channels, err := ReadChannels(r.Path)
	if err != nil {
		return nil, err
	}

	results := make([]channelData, len(channels))
	g, ctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i, ch := range channels {
		if !normalize.IsSafeChannelDir(ch.Name) {
			slog.Debug("skipping channel with unsafe directory name", "id", ch.ID, "channel", ch.Name)
			continue
		}
		g.Go(func() error {
			data, err := readChannelDir(ctx, filepath.Join(r.Path, ch.Name), ch)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &normalize.Dataset{
		Users:    users,
		Channels: channels,
		Messages: []normalize.Message{},
		Alerts:   []normalize.Alert{},
	}
	dropped := 0
	for _, res := range results {
		ds.Messages = append(ds.Messages, res.messages...)
		ds.Alerts = append(ds.Alerts, res.alerts...)
		dropped += res.dropped
	}
	slog.Debug("loaded slack export",
		"path", r.Path,
		"users", len(ds.Users),
		"channels", len(ds.Channels),
		"messages", len(ds.Messages),
		"alerts", len(ds.Alerts),
		"dropped", dropped)
	return ds, nil
}

// ReadUsers parses users.json, dropping accounts without a real name.
func ReadUsers(dir string) ([]normalize.User, error) {
	var raw []normalize.SlackUser
	if err := readJSON(filepath.Join(dir, "users.json"), &raw); err != nil {
		return nil, err
	}
	users := make([]normalize.User, 0, len(raw))
	for i := range raw {
		if u, ok := normalize.ConvertUser(&raw[i]); ok {
			users = append(users, u)
		} else {
			slog.Debug("skipping user without real name", "id", raw[i].ID)
		}
	}
	return users, nil
}

// ReadChannels parses channels.json.
func ReadChannels(dir string) ([]normalize.Channel, error) {
	var raw []normalize.SlackChannel
	if err := readJSON(filepath.Join(dir, "channels.json"), &raw); err != nil {
		return nil, err
	}
	channels := make([]normalize.Channel, 0, len(raw))
	for i := range raw {
		channels = append(channels, normalize.ConvertChannel(&raw[i]))
	}
	return channels, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: missing %s", ErrNotExport, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readChannelDir reads every day file for one channel. A missing directory
// means the channel had no exported history.
func readChannelDir(ctx context.Context, dir string, ch normalize.Channel) (channelData, error) {
	var data channelData
	files, err := dayFiles(dir)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no history for channel", "channel", ch.Name)
		return data, nil
	}
	if err != nil {
		return data, fmt.Errorf("failed to list channel %s: %w", ch.Name, err)
	}

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return data, err
		}
		var raw []normalize.SlackMessage
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Debug("skipping unreadable day file", "channel", ch.Name, "file", name, "error", err)
			continue
		}
		if err := json.Unmarshal(content, &raw); err != nil {
			slog.Debug("skipping malformed day file", "channel", ch.Name, "file", name, "error", err)
			continue
		}
		for i := range raw {
			data.alerts = append(data.alerts, normalize.ExtractAlerts(&raw[i], ch)...)
			msg, ok := normalize.ConvertMessage(&raw[i], ch.ID)
			if !ok {
				data.dropped++
				continue
			}
			data.messages = append(data.messages, msg)
		}
	}
	return data, nil
}

// dayFiles lists YYYY-MM-DD.json files in dir, sorted by name.
func dayFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && dayFilePattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// AvailableWeeks lists the week ids covered by day-file names across every
// channel directory, without parsing message content.
func (r *Reader) AvailableWeeks() ([]string, error) {
	entries, err := os.ReadDir(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}
	var days []time.Time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := dayFiles(filepath.Join(r.Path, e.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			m := dayFilePattern.FindStringSubmatch(f)
			d, err := time.Parse("2006-01-02", m[1])
			if err != nil {
				continue
			}
			days = append(days, d)
		}
	}
	return week.Weeks(days), nil
}

// Package cache keeps raw Slack API responses on disk in the same layout as
// a workspace export, so a fetched workspace can be read back with the
// export reader.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/solvaholic/teampulse/internal/normalize"
)

// DefaultRoot returns the root cache directory path
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".teampulse"), nil
}

// Store is a cache rooted at a directory.
type Store struct {
	Root string
}

// New returns a store rooted at root.
func New(root string) *Store {
	return &Store{Root: root}
}

// WorkspacesDir holds one directory per cached workspace.
func (s *Store) WorkspacesDir() string {
	return filepath.Join(s.Root, "raw", "slack", "workspaces")
}

// WorkspaceDir returns the export-shaped directory for a workspace
func (s *Store) WorkspaceDir(teamID string) string {
	return filepath.Join(s.WorkspacesDir(), teamID)
}

// SaveUsers writes users.json for a workspace
func (s *Store) SaveUsers(teamID string, users []normalize.SlackUser) error {
	if users == nil {
		users = []normalize.SlackUser{}
	}
	return writeJSON(filepath.Join(s.WorkspaceDir(teamID), "users.json"), users)
}

// SaveChannels writes channels.json for a workspace
func (s *Store) SaveChannels(teamID string, channels []normalize.SlackChannel) error {
	if channels == nil {
		channels = []normalize.SlackChannel{}
	}
	return writeJSON(filepath.Join(s.WorkspaceDir(teamID), "channels.json"), channels)
}

// SaveMessages merges messages into the channel's day files. Messages are
// bucketed by their UTC day; a message whose ts is already cached replaces
// the cached copy. Returns how many day files were written.
func (s *Store) SaveMessages(teamID, channelName string, messages []normalize.SlackMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}
	if !normalize.IsSafeChannelDir(channelName) {
		return 0, fmt.Errorf("invalid channel name %q", channelName)
	}

	byDay := make(map[string][]normalize.SlackMessage)
	for _, m := range messages {
		t, err := normalize.ParseSlackTimestamp(m.Timestamp)
		if err != nil {
			continue
		}
		day := t.Format("2006-01-02")
		byDay[day] = append(byDay[day], m)
	}

	dir := filepath.Join(s.WorkspaceDir(teamID), channelName)
	for day, fresh := range byDay {
		path := filepath.Join(dir, day+".json")
		existing, err := readDay(path)
		if err != nil {
			return 0, err
		}
		if err := writeJSON(path, mergeByTS(existing, fresh)); err != nil {
			return 0, err
		}
	}
	return len(byDay), nil
}

// LatestTS returns the newest cached ts for a channel, or "" when the
// channel has nothing cached. Fetches pass it as oldest to resume.
func (s *Store) LatestTS(teamID, channelName string) (string, error) {
	if !normalize.IsSafeChannelDir(channelName) {
		return "", fmt.Errorf("invalid channel name %q", channelName)
	}
	dir := filepath.Join(s.WorkspaceDir(teamID), channelName)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read channel cache: %w", err)
	}

	var days []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			days = append(days, e.Name())
		}
	}
	sort.Strings(days)

	// Newest non-empty day file wins
	for i := len(days) - 1; i >= 0; i-- {
		msgs, err := readDay(filepath.Join(dir, days[i]))
		if err != nil {
			return "", err
		}
		if len(msgs) > 0 {
			return msgs[len(msgs)-1].Timestamp, nil
		}
	}
	return "", nil
}

func readDay(path string) ([]normalize.SlackMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	var msgs []normalize.SlackMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", filepath.Base(path), err)
	}
	return msgs, nil
}

// mergeByTS combines two message lists keyed by ts, later entries winning,
// and orders the result by ts.
func mergeByTS(existing, fresh []normalize.SlackMessage) []normalize.SlackMessage {
	byTS := make(map[string]normalize.SlackMessage, len(existing)+len(fresh))
	for _, m := range existing {
		byTS[m.Timestamp] = m
	}
	for _, m := range fresh {
		byTS[m.Timestamp] = m
	}
	out := make([]normalize.SlackMessage, 0, len(byTS))
	for _, m := range byTS {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return tsLess(out[i].Timestamp, out[j].Timestamp)
	})
	return out
}

// tsLess orders Slack ts strings numerically; plain string order breaks
// when the seconds part changes length.
func tsLess(a, b string) bool {
	af, errA := strconv.ParseFloat(a, 64)
	bf, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil || af == bf {
		return a < b
	}
	return af < bf
}

// writeJSON writes v to path through a temp file and rename.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	return nil
}

// DiscoverWorkspaces returns all cached Slack workspace IDs
func (s *Store) DiscoverWorkspaces() ([]string, error) {
	entries, err := os.ReadDir(s.WorkspacesDir())
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workspaces directory: %w", err)
	}

	workspaceIDs := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			workspaceIDs = append(workspaceIDs, entry.Name())
		}
	}

	return workspaceIDs, nil
}

// WorkspaceUser represents the authenticated user for a workspace
type WorkspaceUser struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	TeamID   string    `json:"team_id"`
	TeamName string    `json:"team_name"`
	CachedAt time.Time `json:"cached_at"`
}

// SaveWorkspaceUser saves authenticated user info for a workspace
func (s *Store) SaveWorkspaceUser(teamID, userID, userName, teamName string) error {
	user := WorkspaceUser{
		UserID:   userID,
		UserName: userName,
		TeamID:   teamID,
		TeamName: teamName,
		CachedAt: time.Now().UTC(),
	}
	return writeJSON(filepath.Join(s.WorkspaceDir(teamID), "auth.json"), user)
}

// GetWorkspaceUser retrieves the authenticated user for a workspace
func (s *Store) GetWorkspaceUser(teamID string) (*WorkspaceUser, error) {
	data, err := os.ReadFile(filepath.Join(s.WorkspaceDir(teamID), "auth.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no cached user info for workspace %s", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user info: %w", err)
	}

	var user WorkspaceUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}

	return &user, nil
}

package normalize

import "time"

// Message is one human communication event.
type Message struct {
	ID        string    `json:"id"`        // msg_slack_C123_1751937341.580579
	UserID    string    `json:"userId"`    // weak reference into Users
	ChannelID string    `json:"channelId"` // weak reference into Channels
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Reactions []string  `json:"reactions"`

	// Supplemental fields carried from the export
	ThreadTS string   `json:"threadTs,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
}

// User is a workspace participant.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Title       string `json:"title,omitempty"`
	IsAdmin     bool   `json:"isAdmin"`
	IsBot       bool   `json:"isBot"`
	IsDeleted   bool   `json:"isDeleted"`
}

// IsHuman reports whether the user counts toward human-centric metrics.
func (u User) IsHuman() bool {
	return !u.IsBot && !u.IsDeleted
}

// Channel is a communication space.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Purpose     string `json:"purpose"`
	MemberCount int    `json:"memberCount"`
	IsArchived  bool   `json:"isArchived"`
}

// Alert is an operations signal detected from a file attached to any message,
// including bot and integration posts.
type Alert struct {
	ChannelID string    `json:"channelId"`
	Channel   string    `json:"channel"`
	TS        string    `json:"ts"`
	Timestamp time.Time `json:"timestamp"`
	Summary   string    `json:"summary"`
	Source    string    `json:"source"` // "aws", "bot", "integration", "unknown"
}

// Dataset is everything a reader yields for one workspace.
type Dataset struct {
	Users    []User    `json:"users"`
	Channels []Channel `json:"channels"`
	Messages []Message `json:"messages"`
	Alerts   []Alert   `json:"alerts"`
}

// Timestamps returns the timestamp of every message, in dataset order.
func (d *Dataset) Timestamps() []time.Time {
	out := make([]time.Time, 0, len(d.Messages))
	for _, m := range d.Messages {
		out = append(out, m.Timestamp)
	}
	return out
}

// ChannelByID indexes channels by id.
func (d *Dataset) ChannelByID() map[string]Channel {
	idx := make(map[string]Channel, len(d.Channels))
	for _, c := range d.Channels {
		idx[c.ID] = c
	}
	return idx
}

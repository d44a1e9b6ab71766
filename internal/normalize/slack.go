package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SlackUser is a user record as found in users.json or users.list.
type SlackUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Deleted  bool   `json:"deleted"`
	IsBot    bool   `json:"is_bot"`
	IsAdmin  bool   `json:"is_admin"`
	IsOwner  bool   `json:"is_owner"`
	Profile  struct {
		RealName    string `json:"real_name"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
		Title       string `json:"title"`
	} `json:"profile"`
}

// SlackChannel is a channel record as found in channels.json or conversations.list.
type SlackChannel struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Created    int64    `json:"created"`
	IsArchived bool     `json:"is_archived"`
	Members    []string `json:"members"`
	NumMembers int      `json:"num_members,omitempty"`
	Purpose    struct {
		Value string `json:"value"`
	} `json:"purpose"`
	Topic struct {
		Value string `json:"value"`
	} `json:"topic"`
}

// SlackMessage is a message as found in a channel day file or conversations.history.
type SlackMessage struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype,omitempty"`
	User      string          `json:"user,omitempty"`
	Text      string          `json:"text"`
	Timestamp string          `json:"ts"`
	ThreadTS  string          `json:"thread_ts,omitempty"`
	BotID     string          `json:"bot_id,omitempty"`
	Username  string          `json:"username,omitempty"`
	Reactions []SlackReaction `json:"reactions,omitempty"`
	Files     []SlackFile     `json:"files,omitempty"`
}

// SlackReaction is one emoji reaction on a message.
type SlackReaction struct {
	Name  string   `json:"name"`
	Users []string `json:"users,omitempty"`
	Count int      `json:"count"`
}

// SlackFile is a file attached to a message.
type SlackFile struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	PrettyType string `json:"pretty_type,omitempty"`
	Mimetype   string `json:"mimetype,omitempty"`
	Subject    string `json:"subject,omitempty"`
	BotID      string `json:"bot_id,omitempty"`
}

// Subtypes that describe channel housekeeping rather than conversation.
var excludedSubtypes = map[string]bool{
	"channel_join":    true,
	"channel_leave":   true,
	"channel_purpose": true,
	"channel_topic":   true,
	"channel_name":    true,
	"message_deleted": true,
}

var userMentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)(\|[^>]*)?>`)

// ParseSlackTimestamp converts a "sec.frac" Slack ts to a UTC instant.
func ParseSlackTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	secPart, fracPart, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	var nsec int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		for i := len(fracPart); i < 9; i++ {
			frac *= 10
		}
		nsec = frac
	}
	return time.Unix(sec, nsec).UTC(), nil
}

// ExtractMentions returns the user ids mentioned as <@U123> or <@U123|name>.
func ExtractMentions(text string) []string {
	matches := userMentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	mentions := make([]string, 0, len(matches))
	for _, match := range matches {
		mentions = append(mentions, match[1])
	}
	return mentions
}

// IsBotUser reports whether a raw user is a bot account.
func IsBotUser(u *SlackUser) bool {
	if u == nil {
		return false
	}
	return u.IsBot || u.ID == "USLACKBOT"
}

// ConvertUser maps a raw user to a User. Accounts without a real name are
// service accounts and are rejected.
func ConvertUser(u *SlackUser) (User, bool) {
	if u == nil || u.ID == "" {
		return User{}, false
	}
	realName := u.RealName
	if realName == "" {
		realName = u.Profile.RealName
	}
	if realName == "" && !IsBotUser(u) {
		return User{}, false
	}
	name := realName
	if name == "" {
		name = u.Name
	}
	return User{
		ID:          u.ID,
		DisplayName: name,
		Email:       u.Profile.Email,
		Title:       u.Profile.Title,
		IsAdmin:     u.IsAdmin || u.IsOwner,
		IsBot:       IsBotUser(u),
		IsDeleted:   u.Deleted,
	}, true
}

// IsSafeChannelDir reports whether a channel name can be used as a
// directory name inside an export without leaving it.
func IsSafeChannelDir(name string) bool {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// ConvertChannel maps a raw channel to a Channel.
func ConvertChannel(c *SlackChannel) Channel {
	members := len(c.Members)
	if members == 0 {
		members = c.NumMembers
	}
	return Channel{
		ID:          c.ID,
		Name:        c.Name,
		Purpose:     c.Purpose.Value,
		MemberCount: members,
		IsArchived:  c.IsArchived,
	}
}

// ConvertMessage maps a raw message to a Message. It rejects housekeeping
// subtypes, authorless or empty messages, and unparseable timestamps.
// Whether the author is human is decided later against the user list.
func ConvertMessage(msg *SlackMessage, channelID string) (Message, bool) {
	if msg.Type != "" && msg.Type != "message" {
		return Message{}, false
	}
	if excludedSubtypes[msg.Subtype] {
		return Message{}, false
	}
	if msg.User == "" || strings.TrimSpace(msg.Text) == "" {
		return Message{}, false
	}
	ts, err := ParseSlackTimestamp(msg.Timestamp)
	if err != nil {
		return Message{}, false
	}

	var reactions []string
	for _, r := range msg.Reactions {
		reactions = append(reactions, r.Name)
	}

	return Message{
		ID:        fmt.Sprintf("msg_slack_%s_%s", channelID, msg.Timestamp),
		UserID:    msg.User,
		ChannelID: channelID,
		Text:      msg.Text,
		Timestamp: ts,
		Reactions: reactions,
		ThreadTS:  msg.ThreadTS,
		Mentions:  ExtractMentions(msg.Text),
	}, true
}

// DetectAlertSource classifies an attached file as an operations signal.
func DetectAlertSource(f *SlackFile) string {
	desc := strings.ToLower(strings.Join([]string{f.Name, f.PrettyType, f.Mimetype, f.Subject}, " "))
	switch {
	case strings.Contains(desc, "aws") || strings.Contains(desc, "cost alert"):
		return "aws"
	case f.BotID != "":
		return "bot"
	case strings.Contains(desc, "integration"):
		return "integration"
	default:
		return "unknown"
	}
}

// ExtractAlerts records one Alert per file attached to the message.
func ExtractAlerts(msg *SlackMessage, channel Channel) []Alert {
	if len(msg.Files) == 0 {
		return nil
	}
	ts, err := ParseSlackTimestamp(msg.Timestamp)
	if err != nil {
		return nil
	}
	alerts := make([]Alert, 0, len(msg.Files))
	for i := range msg.Files {
		f := &msg.Files[i]
		summary := f.Subject
		if summary == "" {
			summary = f.Name
		}
		if summary == "" {
			summary = "file"
		}
		alerts = append(alerts, Alert{
			ChannelID: channel.ID,
			Channel:   channel.Name,
			TS:        msg.Timestamp,
			Timestamp: ts,
			Summary:   summary,
			Source:    DetectAlertSource(f),
		})
	}
	return alerts
}

package analytics

import (
	"github.com/solvaholic/teampulse/internal/normalize"
)

// Scope is the cleaned input to a computation: human users, active channels
// and only the messages that reference both.
type Scope struct {
	Messages []normalize.Message
	Users    []normalize.User
	Channels []normalize.Channel

	humans map[string]normalize.User
}

// Clean drops messages with a zero timestamp, an empty or non-human author,
// or an unknown or archived channel. Bots and deleted users are removed from
// Users and archived channels from Channels.
func Clean(messages []normalize.Message, users []normalize.User, channels []normalize.Channel) Scope {
	s := Scope{
		Messages: make([]normalize.Message, 0, len(messages)),
		Users:    make([]normalize.User, 0, len(users)),
		Channels: make([]normalize.Channel, 0, len(channels)),
		humans:   make(map[string]normalize.User, len(users)),
	}

	for _, u := range users {
		if u.ID == "" || !u.IsHuman() {
			continue
		}
		if _, dup := s.humans[u.ID]; dup {
			continue
		}
		s.humans[u.ID] = u
		s.Users = append(s.Users, u)
	}

	active := make(map[string]bool, len(channels))
	for _, c := range channels {
		if c.ID == "" || c.IsArchived || active[c.ID] {
			continue
		}
		active[c.ID] = true
		s.Channels = append(s.Channels, c)
	}

	for _, m := range messages {
		if m.Timestamp.IsZero() || m.UserID == "" {
			continue
		}
		if _, ok := s.humans[m.UserID]; !ok {
			continue
		}
		if !active[m.ChannelID] {
			continue
		}
		s.Messages = append(s.Messages, m)
	}

	return s
}

// IsHuman reports whether id belongs to a kept user.
func (s Scope) IsHuman(id string) bool {
	_, ok := s.humans[id]
	return ok
}

// ActiveUsers counts distinct message authors.
func (s Scope) ActiveUsers() int {
	seen := make(map[string]bool)
	for _, m := range s.Messages {
		seen[m.UserID] = true
	}
	return len(seen)
}

// AdminCount counts kept users flagged as admins.
func (s Scope) AdminCount() int {
	n := 0
	for _, u := range s.Users {
		if u.IsAdmin {
			n++
		}
	}
	return n
}

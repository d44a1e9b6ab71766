package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solvaholic/teampulse/internal/normalize"
)

// SaveMessage saves a normalized message to the database
func (db *DB) SaveMessage(msg *normalize.Message) error {
	return saveMessage(db.conn, msg)
}

func saveMessage(ex execer, msg *normalize.Message) error {
	reactions, err := marshalList(msg.Reactions)
	if err != nil {
		return fmt.Errorf("failed to marshal reactions: %w", err)
	}
	mentions, err := marshalList(msg.Mentions)
	if err != nil {
		return fmt.Errorf("failed to marshal mentions: %w", err)
	}

	_, err = ex.Exec(`
		INSERT INTO messages (
			id, user_id, channel_id, text, timestamp, thread_ts, reactions, mentions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			thread_ts = excluded.thread_ts,
			reactions = excluded.reactions,
			mentions = excluded.mentions,
			imported_at = CURRENT_TIMESTAMP
	`, msg.ID, msg.UserID, msg.ChannelID, msg.Text, msg.Timestamp.UTC(),
		msg.ThreadTS, reactions, mentions)

	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

const messageColumns = `m.id, m.user_id, m.channel_id, m.text, m.timestamp, m.thread_ts, m.reactions, m.mentions`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*normalize.Message, error) {
	msg := &normalize.Message{}
	var reactions, mentions string
	if err := s.Scan(&msg.ID, &msg.UserID, &msg.ChannelID, &msg.Text, &msg.Timestamp,
		&msg.ThreadTS, &reactions, &mentions); err != nil {
		return nil, err
	}
	msg.Timestamp = msg.Timestamp.UTC()

	if err := json.Unmarshal([]byte(reactions), &msg.Reactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reactions: %w", err)
	}
	if err := json.Unmarshal([]byte(mentions), &msg.Mentions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mentions: %w", err)
	}
	if len(msg.Mentions) == 0 {
		msg.Mentions = nil
	}
	return msg, nil
}

// GetMessage retrieves a message by ID. A missing message is (nil, nil).
func (db *DB) GetMessage(id string) (*normalize.Message, error) {
	msg, err := scanMessage(db.QueryRow(`SELECT `+messageColumns+` FROM messages m WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// SelectMessagesOptions defines options for selecting messages
type SelectMessagesOptions struct {
	UserID     *string
	ChannelID  *string
	Since      *time.Time // inclusive
	Until      *time.Time // exclusive
	Signal     *string    // only messages carrying this signal
	SearchText *string    // substring match on text
	Limit      int
	Offset     int
	Ascending  bool
}

// SelectMessages queries messages with filters, newest first unless
// Ascending is set
func (db *DB) SelectMessages(opts SelectMessagesOptions) ([]*normalize.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages m`

	if opts.Signal != nil {
		query += " INNER JOIN message_signals s ON m.id = s.message_id AND s.signal = ?"
	}

	query += " WHERE 1=1"
	args := []any{}
	if opts.Signal != nil {
		args = append(args, *opts.Signal)
	}

	if opts.UserID != nil {
		query += " AND m.user_id = ?"
		args = append(args, *opts.UserID)
	}
	if opts.ChannelID != nil {
		query += " AND m.channel_id = ?"
		args = append(args, *opts.ChannelID)
	}
	if opts.Since != nil {
		query += " AND m.timestamp >= ?"
		args = append(args, opts.Since.UTC())
	}
	if opts.Until != nil {
		query += " AND m.timestamp < ?"
		args = append(args, opts.Until.UTC())
	}
	if opts.SearchText != nil {
		query += " AND m.text LIKE ? ESCAPE '\\'"
		args = append(args, "%"+escapeLike(*opts.SearchText)+"%")
	}

	if opts.Ascending {
		query += " ORDER BY m.timestamp ASC, m.id ASC"
	} else {
		query += " ORDER BY m.timestamp DESC, m.id DESC"
	}

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		// OFFSET requires a LIMIT in SQLite
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	messages := []*normalize.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// SaveAlert saves an operations alert, ignoring duplicates
func (db *DB) SaveAlert(alert *normalize.Alert) error {
	return saveAlert(db.conn, alert)
}

func saveAlert(ex execer, alert *normalize.Alert) error {
	_, err := ex.Exec(`
		INSERT INTO alerts (channel_id, channel, ts, timestamp, summary, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id, ts, summary) DO UPDATE SET
			channel = excluded.channel,
			source = excluded.source
	`, alert.ChannelID, alert.Channel, alert.TS, alert.Timestamp.UTC(), alert.Summary, alert.Source)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// ListAlerts returns every stored alert, oldest first
func (db *DB) ListAlerts() ([]normalize.Alert, error) {
	rows, err := db.Query(`
		SELECT channel_id, channel, ts, timestamp, summary, source
		FROM alerts
		ORDER BY timestamp, channel_id, summary
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []normalize.Alert{}
	for rows.Next() {
		var a normalize.Alert
		if err := rows.Scan(&a.ChannelID, &a.Channel, &a.TS, &a.Timestamp, &a.Summary, &a.Source); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Timestamp = a.Timestamp.UTC()
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return alerts, nil
}

func marshalList(v []string) (string, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/solvaholic/teampulse/internal/normalize"
)

// SaveChannel saves or updates a channel
func (db *DB) SaveChannel(channel *normalize.Channel) error {
	return saveChannel(db.conn, channel)
}

func saveChannel(ex execer, channel *normalize.Channel) error {
	_, err := ex.Exec(`
		INSERT INTO channels (
			id, name, purpose, member_count, is_archived
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			purpose = excluded.purpose,
			member_count = excluded.member_count,
			is_archived = excluded.is_archived,
			updated_at = CURRENT_TIMESTAMP
	`, channel.ID, channel.Name, channel.Purpose, channel.MemberCount, channel.IsArchived)

	if err != nil {
		return fmt.Errorf("failed to save channel: %w", err)
	}

	return nil
}

// GetChannel retrieves a channel by ID. A missing channel is (nil, nil).
func (db *DB) GetChannel(id string) (*normalize.Channel, error) {
	return db.getChannel("id", id)
}

// GetChannelByName retrieves a channel by name
func (db *DB) GetChannelByName(name string) (*normalize.Channel, error) {
	return db.getChannel("name", name)
}

func (db *DB) getChannel(column, value string) (*normalize.Channel, error) {
	channel := &normalize.Channel{}

	err := db.QueryRow(`
		SELECT id, name, purpose, member_count, is_archived
		FROM channels
		WHERE `+column+` = ?
		ORDER BY id
		LIMIT 1
	`, value).Scan(
		&channel.ID, &channel.Name, &channel.Purpose, &channel.MemberCount, &channel.IsArchived,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return channel, nil
}

// ListChannels returns every stored channel ordered by name
func (db *DB) ListChannels() ([]normalize.Channel, error) {
	rows, err := db.Query(`
		SELECT id, name, purpose, member_count, is_archived
		FROM channels
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	channels := []normalize.Channel{}
	for rows.Next() {
		var c normalize.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.Purpose, &c.MemberCount, &c.IsArchived); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channels: %w", err)
	}
	return channels, nil
}

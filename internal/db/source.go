package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solvaholic/teampulse/internal/classify"
	"github.com/solvaholic/teampulse/internal/normalize"
)

// ImportStats counts what Import wrote.
type ImportStats struct {
	Users    int `json:"users"`
	Channels int `json:"channels"`
	Messages int `json:"messages"`
	Alerts   int `json:"alerts"`
	Signals  int `json:"signals"`
}

// ClassifyFunc returns the signals detected on a message.
type ClassifyFunc func(msg *normalize.Message) []classify.Classification

// Import upserts a whole dataset in one transaction. When classifyFn is
// non-nil every message's signals are replaced with its result.
func (db *DB) Import(ctx context.Context, ds *normalize.Dataset, classifyFn ClassifyFunc) (*ImportStats, error) {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats := &ImportStats{}
	for i := range ds.Users {
		if err := saveUser(tx, &ds.Users[i]); err != nil {
			return nil, err
		}
		stats.Users++
	}
	for i := range ds.Channels {
		if err := saveChannel(tx, &ds.Channels[i]); err != nil {
			return nil, err
		}
		stats.Channels++
	}
	for i := range ds.Messages {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		msg := &ds.Messages[i]
		if err := saveMessage(tx, msg); err != nil {
			return nil, err
		}
		stats.Messages++
		if classifyFn == nil {
			continue
		}
		signals := classifyFn(msg)
		if err := saveSignals(tx, msg.ID, signals); err != nil {
			return nil, err
		}
		stats.Signals += len(signals)
	}
	for i := range ds.Alerts {
		if err := saveAlert(tx, &ds.Alerts[i]); err != nil {
			return nil, err
		}
		stats.Alerts++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	slog.Debug("imported dataset",
		"users", stats.Users,
		"channels", stats.Channels,
		"messages", stats.Messages,
		"alerts", stats.Alerts,
		"signals", stats.Signals)
	return stats, nil
}

// Source loads the whole stored workspace as a dataset.
type Source struct {
	DB *DB
}

// Load reads every user, channel, message and alert.
func (s Source) Load(ctx context.Context) (*normalize.Dataset, error) {
	users, err := s.DB.ListUsers()
	if err != nil {
		return nil, err
	}
	channels, err := s.DB.ListChannels()
	if err != nil {
		return nil, err
	}
	alerts, err := s.DB.ListAlerts()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages m ORDER BY m.timestamp, m.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	messages := []normalize.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return &normalize.Dataset{
		Users:    users,
		Channels: channels,
		Messages: messages,
		Alerts:   alerts,
	}, nil
}

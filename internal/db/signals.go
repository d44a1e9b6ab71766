package db

import (
	"encoding/json"
	"fmt"

	"github.com/solvaholic/teampulse/internal/classify"
)

// SaveSignals replaces the stored classifications for a message
func (db *DB) SaveSignals(messageID string, classifications []classify.Classification) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveSignals(tx, messageID, classifications); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signals: %w", err)
	}
	return nil
}

func saveSignals(ex execer, messageID string, classifications []classify.Classification) error {
	if _, err := ex.Exec(`DELETE FROM message_signals WHERE message_id = ?`, messageID); err != nil {
		return fmt.Errorf("failed to clear signals: %w", err)
	}
	for _, c := range classifications {
		matches, err := marshalList(c.Signals)
		if err != nil {
			return fmt.Errorf("failed to marshal signal matches: %w", err)
		}
		_, err = ex.Exec(`
			INSERT INTO message_signals (message_id, signal, confidence, matches)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(message_id, signal) DO UPDATE SET
				confidence = excluded.confidence,
				matches = excluded.matches,
				classified_at = CURRENT_TIMESTAMP
		`, messageID, c.Type, c.Confidence, matches)
		if err != nil {
			return fmt.Errorf("failed to save signal %s: %w", c.Type, err)
		}
	}
	return nil
}

// GetSignals returns the classifications stored for a message, by signal name
func (db *DB) GetSignals(messageID string) ([]classify.Classification, error) {
	rows, err := db.Query(`
		SELECT signal, confidence, matches
		FROM message_signals
		WHERE message_id = ?
		ORDER BY signal
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get signals: %w", err)
	}
	defer rows.Close()

	out := []classify.Classification{}
	for rows.Next() {
		var c classify.Classification
		var matches string
		if err := rows.Scan(&c.Type, &c.Confidence, &matches); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		if err := json.Unmarshal([]byte(matches), &c.Signals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signal matches: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return out, nil
}

// SignalCount is how many messages carry one signal.
type SignalCount struct {
	Signal   string `json:"signal"`
	Messages int    `json:"messages"`
}

// CountSignals tallies stored signals, most frequent first
func (db *DB) CountSignals() ([]SignalCount, error) {
	rows, err := db.Query(`
		SELECT signal, COUNT(*) AS n
		FROM message_signals
		GROUP BY signal
		ORDER BY n DESC, signal
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count signals: %w", err)
	}
	defer rows.Close()

	out := []SignalCount{}
	for rows.Next() {
		var sc SignalCount
		if err := rows.Scan(&sc.Signal, &sc.Messages); err != nil {
			return nil, fmt.Errorf("failed to scan signal count: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal counts: %w", err)
	}
	return out, nil
}

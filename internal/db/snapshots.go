package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solvaholic/teampulse/internal/analytics"
)

// Snapshot is a saved weekly report with its headline metrics pulled out
// for listing.
type Snapshot struct {
	ID                  string          `json:"id"`
	Week                string          `json:"week"`
	Source              string          `json:"source"`
	CreatedAt           time.Time       `json:"createdAt"`
	RiskLevel           string          `json:"riskLevel"`
	BurnoutRisk         float64         `json:"burnoutRisk"`
	PsychologicalSafety float64         `json:"psychologicalSafety"`
	TeamStage           string          `json:"teamStage"`
	Report              json.RawMessage `json:"report,omitempty"`
}

// SaveSnapshot stores report for week under a new id
func (db *DB) SaveSnapshot(week, source string, metrics analytics.TeamHealthMetrics, report any) (*Snapshot, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	snap := &Snapshot{
		ID:                  uuid.NewString(),
		Week:                week,
		Source:              source,
		CreatedAt:           time.Now().UTC(),
		RiskLevel:           string(metrics.RiskLevel),
		BurnoutRisk:         metrics.BurnoutRisk,
		PsychologicalSafety: metrics.PsychologicalSafety,
		TeamStage:           string(metrics.TeamStage),
		Report:              body,
	}

	_, err = db.Exec(`
		INSERT INTO snapshots (
			id, week, source, created_at, risk_level, burnout_risk,
			psychological_safety, team_stage, report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Week, snap.Source, snap.CreatedAt, snap.RiskLevel,
		snap.BurnoutRisk, snap.PsychologicalSafety, snap.TeamStage, string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	return snap, nil
}

// GetSnapshot retrieves a snapshot with its report. A missing id is (nil, nil).
func (db *DB) GetSnapshot(id string) (*Snapshot, error) {
	snap := &Snapshot{}
	var body string
	err := db.QueryRow(`
		SELECT id, week, source, created_at, risk_level, burnout_risk,
		       psychological_safety, team_stage, report
		FROM snapshots
		WHERE id = ?
	`, id).Scan(&snap.ID, &snap.Week, &snap.Source, &snap.CreatedAt, &snap.RiskLevel,
		&snap.BurnoutRisk, &snap.PsychologicalSafety, &snap.TeamStage, &body)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	snap.Report = json.RawMessage(body)
	return snap, nil
}

// ListSnapshots returns snapshot headers, oldest week first. An empty week
// lists every week. Report bodies are not loaded.
func (db *DB) ListSnapshots(week string, limit int) ([]Snapshot, error) {
	query := `
		SELECT id, week, source, created_at, risk_level, burnout_risk,
		       psychological_safety, team_stage
		FROM snapshots
		WHERE 1=1`
	args := []any{}
	if week != "" {
		query += " AND week = ?"
		args = append(args, week)
	}
	query += " ORDER BY week, created_at"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Week, &s.Source, &s.CreatedAt, &s.RiskLevel,
			&s.BurnoutRisk, &s.PsychologicalSafety, &s.TeamStage); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return out, nil
}

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Default window for a newly tracked endpoint: 20 requests per minute,
// stopping at 10 to leave headroom for other clients on the same token.
const (
	DefaultWindowSeconds = 60
	DefaultMaxRequests   = 20
	DefaultSafetyLimit   = 10
)

// RateLimit represents API rate limiting information
type RateLimit struct {
	SourceType            string    `json:"sourceType"`
	WorkspaceID           string    `json:"workspaceId"`
	Endpoint              string    `json:"endpoint"`
	RequestsMade          int       `json:"requestsMade"`
	WindowStart           time.Time `json:"windowStart"`
	WindowDurationSeconds int       `json:"windowDurationSeconds"`
	MaxRequests           int       `json:"maxRequests"`
	SafetyLimit           int       `json:"safetyLimit"`
}

// WindowEnd is when the current window expires.
func (rl *RateLimit) WindowEnd() time.Time {
	return rl.WindowStart.Add(time.Duration(rl.WindowDurationSeconds) * time.Second)
}

// CheckRateLimit reports whether a request is allowed within rate limits
func (db *DB) CheckRateLimit(sourceType, workspaceID, endpoint string) (bool, error) {
	rl, err := db.GetRateLimitStatus(sourceType, workspaceID, endpoint)
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if rl == nil {
		return true, db.InitRateLimit(sourceType, workspaceID, endpoint, DefaultWindowSeconds, DefaultMaxRequests, DefaultSafetyLimit)
	}

	if time.Now().After(rl.WindowEnd()) {
		return true, db.ResetRateLimitWindow(sourceType, workspaceID, endpoint)
	}

	return rl.RequestsMade < rl.SafetyLimit, nil
}

// RecordRequest records a successful API request
func (db *DB) RecordRequest(sourceType, workspaceID, endpoint string) error {
	_, err := db.Exec(`
		UPDATE rate_limits
		SET requests_made = requests_made + 1
		WHERE source_type = ? AND workspace_id = ? AND endpoint = ?
	`, sourceType, workspaceID, endpoint)

	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}

	return nil
}

// InitRateLimit initializes rate limit tracking for an endpoint
func (db *DB) InitRateLimit(sourceType, workspaceID, endpoint string, windowDuration, maxRequests, safetyLimit int) error {
	_, err := db.Exec(`
		INSERT INTO rate_limits (
			source_type, workspace_id, endpoint, requests_made, window_start,
			window_duration_seconds, max_requests, safety_limit
		) VALUES (?, ?, ?, 0, ?, ?, ?, ?)
		ON CONFLICT(source_type, workspace_id, endpoint) DO NOTHING
	`, sourceType, workspaceID, endpoint, time.Now().UTC(), windowDuration, maxRequests, safetyLimit)

	if err != nil {
		return fmt.Errorf("failed to init rate limit: %w", err)
	}

	return nil
}

// ResetRateLimitWindow resets the rate limit window
func (db *DB) ResetRateLimitWindow(sourceType, workspaceID, endpoint string) error {
	_, err := db.Exec(`
		UPDATE rate_limits
		SET requests_made = 0, window_start = ?
		WHERE source_type = ? AND workspace_id = ? AND endpoint = ?
	`, time.Now().UTC(), sourceType, workspaceID, endpoint)

	if err != nil {
		return fmt.Errorf("failed to reset rate limit window: %w", err)
	}

	return nil
}

// GetRateLimitStatus returns the current rate limit status, or nil when
// the endpoint is not tracked yet
func (db *DB) GetRateLimitStatus(sourceType, workspaceID, endpoint string) (*RateLimit, error) {
	rl := &RateLimit{}
	err := db.QueryRow(`
		SELECT source_type, workspace_id, endpoint, requests_made, window_start,
		       window_duration_seconds, max_requests, safety_limit
		FROM rate_limits
		WHERE source_type = ? AND workspace_id = ? AND endpoint = ?
	`, sourceType, workspaceID, endpoint).Scan(
		&rl.SourceType, &rl.WorkspaceID, &rl.Endpoint, &rl.RequestsMade,
		&rl.WindowStart, &rl.WindowDurationSeconds, &rl.MaxRequests, &rl.SafetyLimit,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit status: %w", err)
	}

	return rl, nil
}

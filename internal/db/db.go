// Package db is the local SQLite store for imported workspaces, message
// signals and saved weekly reports.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const SchemaVersion = 1

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates the database at the given path
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_foreign_keys=on", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{
		conn: conn,
		path: dbPath,
	}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) initSchema() error {
	var currentVersion int
	err := db.conn.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)

	if errors.Is(err, sql.ErrNoRows) || (err != nil && strings.Contains(err.Error(), "no such table: schema_version")) {
		if _, err := db.conn.Exec(schemaSQL); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check schema version: %w", err)
	}

	if currentVersion < SchemaVersion {
		return fmt.Errorf("schema migration needed from version %d to %d (not implemented)", currentVersion, SchemaVersion)
	}

	return nil
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// BeginTx starts a new transaction bound to ctx
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, nil)
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryContext executes a query that returns rows, bound to ctx
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// DefaultDBPath returns the default database path
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./teampulse.db"
	}
	return filepath.Join(home, ".teampulse", "teampulse.db")
}

// Stats represents database statistics
type Stats struct {
	MessageCount    int64      `json:"messageCount"`
	UserCount       int64      `json:"userCount"`
	ChannelCount    int64      `json:"channelCount"`
	AlertCount      int64      `json:"alertCount"`
	SignalCount     int64      `json:"signalCount"`
	SnapshotCount   int64      `json:"snapshotCount"`
	EarliestMessage *time.Time `json:"earliestMessage,omitempty"`
	LatestMessage   *time.Time `json:"latestMessage,omitempty"`
	DatabaseSize    int64      `json:"databaseSize"`
}

// Stats returns database statistics
func (db *DB) Stats() (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		table string
		dest  *int64
	}{
		{"messages", &stats.MessageCount},
		{"users", &stats.UserCount},
		{"channels", &stats.ChannelCount},
		{"alerts", &stats.AlertCount},
		{"message_signals", &stats.SignalCount},
		{"snapshots", &stats.SnapshotCount},
	}
	for _, c := range counts {
		if err := db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	// MIN/MAX lose the column type, so order by the indexed column instead
	var err error
	stats.EarliestMessage, err = db.boundaryTimestamp("ASC")
	if err != nil {
		return nil, err
	}
	stats.LatestMessage, err = db.boundaryTimestamp("DESC")
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(db.path); err == nil {
		stats.DatabaseSize = info.Size()
	}

	return stats, nil
}

func (db *DB) boundaryTimestamp(order string) (*time.Time, error) {
	var ts time.Time
	err := db.QueryRow("SELECT timestamp FROM messages ORDER BY timestamp " + order + " LIMIT 1").Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get date range: %w", err)
	}
	ts = ts.UTC()
	return &ts, nil
}

// Package history persists build reports to a local SQLite database so past
// build outcomes stay inspectable after the process exits.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/provbook/bookbuilder/internal/site"
)

// Store records build reports in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Entry is a summarized build row.
type Entry struct {
	BuildID   string
	Outcome   site.Outcome
	StartedAt time.Time
	Duration  time.Duration
	Pages     int
	Warnings  int
}

// Open opens (creating if necessary) the history database.
// Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		report BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a build report.
func (s *Store) Record(ctx context.Context, report *site.BuildReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal build report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO builds (id, started_at, outcome, duration_ms, pages, warnings, report) VALUES (?, ?, ?, ?, ?, ?, ?)",
		report.BuildID,
		report.StartedAt.Unix(),
		string(report.Outcome),
		report.Duration.Milliseconds(),
		report.Pages,
		len(report.References),
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert build report: %w", err)
	}
	return nil
}

// List returns the most recent builds, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, outcome, duration_ms, pages, warnings FROM builds ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt, durationMS int64
		if err := rows.Scan(&e.BuildID, &startedAt, &e.Outcome, &durationMS, &e.Pages, &e.Warnings); err != nil {
			return nil, fmt.Errorf("scan build row: %w", err)
		}
		e.StartedAt = time.Unix(startedAt, 0)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the full report for one build.
func (s *Store) Get(ctx context.Context, buildID string) (*site.BuildReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT report FROM builds WHERE id = ?", buildID).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("query build %s: %w", buildID, err)
	}

	var report site.BuildReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal build report: %w", err)
	}
	return &report, nil
}

// Prune keeps the newest keep builds and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM builds WHERE id NOT IN (SELECT id FROM builds ORDER BY started_at DESC, id DESC LIMIT ?)",
		keep,
	)
	if err != nil {
		return fmt.Errorf("prune builds: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

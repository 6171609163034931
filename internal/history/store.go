// Package history records summarization runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	summary TEXT NOT NULL,
	output_video TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS segments (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	start_sec REAL NOT NULL,
	end_sec REAL NOT NULL,
	status TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, idx)
);
`

// Run is one recorded summarization
type Run struct {
	ID          string
	Source      string
	Summary     string
	OutputVideo string
	StartedAt   time.Time
	Duration    time.Duration
	Segments    []Segment
}

// Segment is the stored outcome of one part of a run
type Segment struct {
	Index   int
	Start   float64
	End     float64
	Status  string
	Summary string
	Reason  string
}

// Store persists runs
type Store struct {
	db *sql.DB
}

// Open opens (creating it and its directory if needed) the database at
// path. ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its segments in one transaction, replacing any
// earlier record with the same id.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, source, summary, output_video, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Source, run.Summary, run.OutputVideo, run.StartedAt.UnixMilli(), run.Duration.Milliseconds()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, seg := range run.Segments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO segments (run_id, idx, start_sec, end_sec, status, summary, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, seg.Index, seg.Start, seg.End, seg.Status, seg.Summary, seg.Reason); err != nil {
			return fmt.Errorf("insert segment %d: %w", seg.Index, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the newest runs first, at most limit of them (all when
// limit <= 0).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, summary, output_video, started_at, duration_ms
		FROM runs
		ORDER BY started_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt, durationMS int64
		if err := rows.Scan(&r.ID, &r.Source, &r.Summary, &r.OutputVideo, &startedAt, &durationMS); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedAt)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		segs, err := s.segments(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Segments = segs
	}
	return runs, nil
}

func (s *Store) segments(ctx context.Context, runID string) ([]Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, start_sec, end_sec, status, summary, reason
		FROM segments
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segs []Segment
	for rows.Next() {
		var seg Segment
		if err := rows.Scan(&seg.Index, &seg.Start, &seg.End, &seg.Status, &seg.Summary, &seg.Reason); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}

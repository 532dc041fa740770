// Package history persists per-run and per-task records in SQLite so past
// builds can be inspected from the CLI.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes; users clear the history
// database to adopt a new schema.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// imagemill version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

// Run summarizes one pipeline invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Requested  int
	Needed     int
	Completed  int
	Failed     int
	TimedOut   int
}

// TaskRecord is one settled task within a run.
type TaskRecord struct {
	RunID      string
	Item       string
	Signature  string
	Status     string
	DurationMS int64
	Detail     string
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// BeginRun inserts a run row when the pipeline starts.
func (s *Store) BeginRun(ctx context.Context, id string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, started_at) VALUES (?, ?)",
		id, startedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordTask appends one settled task to the run.
func (s *Store) RecordTask(ctx context.Context, rec TaskRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_tasks (run_id, item, signature, status, duration_ms, detail)
         VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Item, rec.Signature, rec.Status, rec.DurationMS, nullableString(rec.Detail))
	if err != nil {
		return fmt.Errorf("insert run task: %w", err)
	}
	return nil
}

// FinishRun records final counts and the finish timestamp.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, requested = ?, needed = ?, completed = ?, failed = ?, timed_out = ?
         WHERE id = ?`,
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Requested, run.Needed, run.Completed, run.Failed, run.TimedOut,
		run.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("finish run: no run with id %q", run.ID)
	}
	return nil
}

// RecentRuns returns runs newest-first, up to limit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, requested, needed, completed, failed, timed_out
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		var finished sql.NullString
		if err := rows.Scan(&run.ID, &started, &finished,
			&run.Requested, &run.Needed, &run.Completed, &run.Failed, &run.TimedOut); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if finished.Valid && finished.String != "" {
			if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
				return nil, fmt.Errorf("parse finished_at: %w", err)
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TasksForRun returns the task records of one run in insertion order.
func (s *Store) TasksForRun(ctx context.Context, runID string) ([]TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, item, signature, status, duration_ms, COALESCE(detail, '')
         FROM run_tasks WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run tasks: %w", err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var rec TaskRecord
		if err := rows.Scan(&rec.RunID, &rec.Item, &rec.Signature, &rec.Status, &rec.DurationMS, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan run task: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

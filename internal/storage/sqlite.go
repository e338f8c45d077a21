package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

var _ Store = (*DB)(nil)

// selectRunFields contains the standard field list for SELECT queries.
const selectRunFields = `id, created_at, source, mode, files,
	ris_unique, enw_unique, duplicates, skipped, failed`

// OpenDB opens or creates a SQLite database at the given path.
// Parent directories are created as needed.
func OpenDB(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			source TEXT NOT NULL,
			mode TEXT NOT NULL,
			files INTEGER NOT NULL,
			ris_unique INTEGER NOT NULL,
			enw_unique INTEGER NOT NULL,
			duplicates INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			failed INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// RecordRun inserts a run summary.
func (d *DB) RecordRun(ctx context.Context, run Run) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO runs (`+selectRunFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Source, run.Mode, run.Files,
		run.RISUnique, run.ENWUnique, run.Duplicates, run.Skipped, run.Failed,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first, optionally limited.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + selectRunFields + ` FROM runs ORDER BY created_at DESC, id`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Count returns the total number of recorded runs.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var createdAt int64

	err := s.Scan(
		&run.ID, &createdAt, &run.Source, &run.Mode, &run.Files,
		&run.RISUnique, &run.ENWUnique, &run.Duplicates, &run.Skipped, &run.Failed,
	)
	if err != nil {
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}

	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return run, nil
}

// Package history records completed generation runs in a local SQLite
// database so any result can be reproduced later from its stored seed
// and parameters.
//
// The store composes:
//   - a SQLite connection in WAL mode (modernc.org/sqlite, pure Go)
//   - schema migrations embedded in the binary (golang-migrate + iofs)
//
// History is strictly best-effort: the pipeline records a run only
// after the image has been persisted, and a recording failure is a
// warning, never a run failure.
package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// busyTimeoutMS is how long SQLite waits for locks before failing.
const busyTimeoutMS = 5000

// Run is one recorded generation run.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Mode       string
	Prompt     string
	Seed       int64
	Width      int
	Height     int
	Steps      int
	Guidance   float64
	Strength   float64
	OutputPath string
	DurationMS int64
}

// Store is an open run-history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the history database at path and
// applies any pending schema migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	// WAL mode: concurrent readers, single writer, crash recovery.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS),
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", pragma, err)
		}
	}

	// SQLite handles concurrency best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// runMigrations applies all pending up migrations from the embedded
// migration files. migrate.ErrNoChange is not an error.
func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("history: load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("history: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("history: migrator: %w", err)
	}
	// Not calling m.Close(): it would close the database connection we
	// are about to hand to the store.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("history: apply migrations: %w", err)
	}
	return nil
}

// RecordRun inserts one run. A missing ID is filled with a fresh UUID
// and a zero CreatedAt with the current time; both are returned via
// the updated copy of the record.
func (s *Store) RecordRun(r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (
			id, created_at, mode, prompt, seed,
			width, height, steps, guidance, strength,
			output_path, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.Format(time.RFC3339), r.Mode, r.Prompt, r.Seed,
		r.Width, r.Height, r.Steps, r.Guidance, r.Strength,
		r.OutputPath, r.DurationMS,
	)
	if err != nil {
		return r, fmt.Errorf("history: record run: %w", err)
	}
	return r, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, created_at, mode, prompt, seed,
		       width, height, steps, guidance, strength,
		       output_path, duration_ms
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		if err := rows.Scan(
			&r.ID, &createdAt, &r.Mode, &r.Prompt, &r.Seed,
			&r.Width, &r.Height, &r.Steps, &r.Guidance, &r.Strength,
			&r.OutputPath, &r.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return runs, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database. Safe to call multiple times.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("history: close: %w", err)
	}
	return nil
}

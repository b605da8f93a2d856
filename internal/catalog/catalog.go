// File path: internal/catalog/catalog.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store keeps the run history in a SQLite database: one row per pipeline run
// plus the per-unit failures it reported. The catalog is advisory; a catalog
// failure never fails the pipeline.
type Store struct {
	db *sqlx.DB
}

// Run is one recorded pipeline run.
type Run struct {
	ID                   int64     `db:"id"`
	StartedAt            time.Time `db:"started_at"`
	FinishedAt           time.Time `db:"finished_at"`
	ExtractionsAttempted int       `db:"extractions_attempted"`
	ExtractionsCompleted int       `db:"extractions_completed"`
	SummariesAttempted   int       `db:"summaries_attempted"`
	SummariesCompleted   int       `db:"summaries_completed"`
}

// Failure is one per-unit failure surfaced during a run.
type Failure struct {
	RunID    int64  `db:"run_id"`
	Stage    string `db:"stage"`
	Artifact string `db:"artifact"`
	Message  string `db:"message"`
}

// Open constructs a Store backed by the SQLite database at the provided
// path, migrating the schema on first use.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", abs)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	extractions_attempted INTEGER NOT NULL DEFAULT 0,
	extractions_completed INTEGER NOT NULL DEFAULT 0,
	summaries_attempted INTEGER NOT NULL DEFAULT 0,
	summaries_completed INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS run_failures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	stage TEXT NOT NULL,
	artifact TEXT NOT NULL,
	message TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_failures_run ON run_failures(run_id);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

// RecordRun stores one run and its failures in a single transaction and
// returns the run id.
func (s *Store) RecordRun(ctx context.Context, run Run, failures []Failure) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("catalog not initialized")
	}
	var runID int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO runs(started_at, finished_at, extractions_attempted, extractions_completed, summaries_attempted, summaries_completed)
			 VALUES(?, ?, ?, ?, ?, ?)`,
			run.StartedAt, run.FinishedAt,
			run.ExtractionsAttempted, run.ExtractionsCompleted,
			run.SummariesAttempted, run.SummariesCompleted,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		runID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("run id: %w", err)
		}
		for _, failure := range failures {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_failures(run_id, stage, artifact, message) VALUES(?, ?, ?, ?)`,
				runID, failure.Stage, failure.Artifact, failure.Message,
			); err != nil {
				return fmt.Errorf("insert run failure: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return runID, nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	err := s.db.SelectContext(ctx, &runs,
		`SELECT id, started_at, finished_at, extractions_attempted, extractions_completed, summaries_attempted, summaries_completed
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return runs, nil
}

// FailuresForRun returns the failures recorded for a run.
func (s *Store) FailuresForRun(ctx context.Context, runID int64) ([]Failure, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog not initialized")
	}
	var failures []Failure
	err := s.db.SelectContext(ctx, &failures,
		`SELECT run_id, stage, artifact, message FROM run_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("select run failures: %w", err)
	}
	return failures, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

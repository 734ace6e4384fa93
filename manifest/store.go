// Package manifest records loader runs in a SQLite database so that the
// datasets built from a root can be compared over time.
package manifest

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Noofbiz/lickset/datasets"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when schema.sql changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded loader invocation.
type Run struct {
	ID          string
	Root        string
	RootError   string
	CreatedAt   time.Time
	Experiments int
	Loaded      int
	Skipped     int
	Samples     int
}

// Store is a manifest database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the manifest at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty manifest path")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create manifest directory: %w", err)
		}
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

// Path returns the database file.
func (s *Store) Path() string { return s.path }

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
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
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
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordRun stores report under a new run id and returns it.
func (s *Store) RecordRun(ctx context.Context, report *datasets.Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("report is nil")
	}
	runID := uuid.NewString()
	totals := report.Totals()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, root_error, created_at, experiments, loaded, skipped, samples)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, report.Root, report.RootError, time.Now().UTC().Format(timeLayout),
		totals.Experiments, totals.Loaded, totals.Skipped, totals.Samples,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO experiments (run_id, position, name, status, reason, images_found, frames_indexed,
		 rejected, keypoints_present, keypoints_occluded, rows_discarded, masks_found, frames_skipped,
		 samples, original_width, original_height)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare experiment insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range report.Experiments {
		_, err := stmt.ExecContext(ctx,
			runID, i, e.Name, e.Status, e.Reason, e.ImagesFound, e.FramesIndexed,
			e.Rejected, e.KeypointsPresent, e.KeypointsOccluded, e.RowsDiscarded, e.MasksFound,
			e.FramesSkipped, e.Samples, e.Original.Width, e.Original.Height,
		)
		if err != nil {
			return "", fmt.Errorf("insert experiment %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, root_error, created_at, experiments, loaded, skipped, samples
		 FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created string
		)
		if err := rows.Scan(&r.ID, &r.Root, &r.RootError, &created,
			&r.Experiments, &r.Loaded, &r.Skipped, &r.Samples); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Experiments returns the per-experiment lines of a run in load order.
func (s *Store) Experiments(ctx context.Context, runID string) ([]datasets.ExperimentSummary, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM runs WHERE id = ?", runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup run %s: %w", runID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, status, reason, images_found, frames_indexed, rejected, keypoints_present,
		 keypoints_occluded, rows_discarded, masks_found, frames_skipped, samples,
		 original_width, original_height
		 FROM experiments WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query experiments: %w", err)
	}
	defer rows.Close()

	var out []datasets.ExperimentSummary
	for rows.Next() {
		var e datasets.ExperimentSummary
		if err := rows.Scan(&e.Name, &e.Status, &e.Reason, &e.ImagesFound, &e.FramesIndexed,
			&e.Rejected, &e.KeypointsPresent, &e.KeypointsOccluded, &e.RowsDiscarded,
			&e.MasksFound, &e.FramesSkipped, &e.Samples, &e.Original.Width, &e.Original.Height); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

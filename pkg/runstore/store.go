// Package runstore keeps a history of limit checking runs in SQLite.
package runstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	limit_file   TEXT NOT NULL,
	source       TEXT NOT NULL,
	telemetry    TEXT NOT NULL,
	frames       INTEGER NOT NULL,
	failures     INTEGER NOT NULL,
	worst        TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS exceedances (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	param        TEXT NOT NULL,
	unit         TEXT NOT NULL,
	severity     TEXT NOT NULL,
	extreme      TEXT NOT NULL,
	record       INTEGER NOT NULL,
	count        INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// ErrNotFound is returned by Get for an unknown run
var ErrNotFound = errors.New("run not found")

// Run is the summary of one pass over a telemetry file
type Run struct {
	ID          string
	LimitFile   string
	Source      string
	Telemetry   string
	Frames      int
	Failures    int
	Worst       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Exceedances []Exceedance
}

// Exceedance is the worst excursion of one parameter in a run
type Exceedance struct {
	Param    string
	Unit     string
	Severity string
	Extreme  string
	Record   int
	Count    int
}

// Store manages run history in SQLite
type Store struct {
	db      *sql.DB
	backoff func() backoff.BackOff
}

// Open opens the database at path and runs migrations
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, backoff: defaultBackoff}, nil
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(b, 8)
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// NewID returns a fresh run identifier
func NewID() string {
	return uuid.New().String()
}

// Save stores r, assigning an ID when it has none.  Writes that find the
// database locked by another process are retried with exponential backoff.
func (s *Store) Save(r *Run) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	op := func() error {
		err := s.save(r)
		if err != nil && !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, s.backoff()); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		return err
	}
	return nil
}

func (s *Store) save(r *Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, limit_file, source, telemetry, frames, failures, worst, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.LimitFile, r.Source, r.Telemetry, r.Frames, r.Failures, r.Worst,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, e := range r.Exceedances {
		_, err = tx.Exec(
			`INSERT INTO exceedances (run_id, param, unit, severity, extreme, record, count)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, e.Param, e.Unit, e.Severity, e.Extreme, e.Record, e.Count,
		)
		if err != nil {
			return fmt.Errorf("insert exceedance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get returns the run with id and its exceedances
func (s *Store) Get(id string) (Run, error) {
	row := s.db.QueryRow(
		`SELECT run_id, limit_file, source, telemetry, frames, failures, worst, started_at, finished_at
		 FROM runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.Query(
		`SELECT param, unit, severity, extreme, record, count
		 FROM exceedances WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query exceedances: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e Exceedance
		if err := rows.Scan(&e.Param, &e.Unit, &e.Severity, &e.Extreme, &e.Record, &e.Count); err != nil {
			return Run{}, fmt.Errorf("scan exceedance: %w", err)
		}
		r.Exceedances = append(r.Exceedances, e)
	}
	return r, rows.Err()
}

// List returns up to limit runs, most recent first, without exceedances
func (s *Store) List(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, limit_file, source, telemetry, frames, failures, worst, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r                 Run
		started, finished string
	)
	if err := row.Scan(&r.ID, &r.LimitFile, &r.Source, &r.Telemetry, &r.Frames, &r.Failures, &r.Worst, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	var err error
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return r, nil
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

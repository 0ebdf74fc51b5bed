// Package runlog records pipeline runs and source ETags in a local
// SQLite database, so repeated runs can skip unchanged downloads and
// operators can inspect run history without a server.
package runlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Entry is one recorded pipeline run.
type Entry struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Prices      int64      `json:"prices"`
	Matched     int64      `json:"matched"`
	Error       string     `json:"error,omitempty"`
}

// Log is a SQLite-backed run log.
type Log struct {
	db *sql.DB
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME,
	prices       INTEGER NOT NULL DEFAULT 0,
	matched      INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE TABLE IF NOT EXISTS source_etags (
	source     TEXT PRIMARY KEY,
	etag       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Open opens (creating if needed) the run log database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}
	if _, err := db.Exec(migration); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "runlog: migrate")
	}
	return &Log{db: db}, nil
}

// Close releases the database.
func (l *Log) Close() error { return l.db.Close() }

// Start records a new running entry and returns its ID.
func (l *Log) Start(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, datetime('now'))`,
		id, StatusRunning,
	)
	if err != nil {
		return "", eris.Wrap(err, "runlog: start run")
	}
	return id, nil
}

// Complete marks a run as successfully finished with its counts.
func (l *Log) Complete(ctx context.Context, id string, prices, matched int64) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = datetime('now'), prices = ?, matched = ? WHERE id = ?`,
		StatusComplete, prices, matched, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", id)
	}
	return nil
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, id string, errMsg string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = datetime('now'), error = ? WHERE id = ?`,
		StatusFailed, errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", id)
	}
	return nil
}

// List returns all runs, most recent first.
func (l *Log) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, status, started_at, completed_at, prices, matched, COALESCE(error, '')
		 FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Status, &e.StartedAt, &e.CompletedAt, &e.Prices, &e.Matched, &e.Error); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastETag returns the stored ETag for a source, or "" if none.
func (l *Log) LastETag(ctx context.Context, source string) (string, error) {
	var etag string
	err := l.db.QueryRowContext(ctx,
		`SELECT etag FROM source_etags WHERE source = ?`, source,
	).Scan(&etag)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "runlog: last etag for %s", source)
	}
	return etag, nil
}

// SetETag upserts the ETag for a source.
func (l *Log) SetETag(ctx context.Context, source, etag string) error {
	if etag == "" {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO source_etags (source, etag, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(source) DO UPDATE SET etag = excluded.etag, updated_at = excluded.updated_at`,
		source, etag,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: set etag for %s", source)
	}
	return nil
}

// Package catalog keeps a local SQLite index of capture sessions so past
// runs can be listed without scanning the data directory.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Session is one recorded acquisition run.
type Session struct {
	ID              int64
	StartedAt       time.Time
	Device          string
	Bits            int
	IntervalSeconds int
	Folds           int
	Samples         int64
	FinalZ          float64
	BinPath         string
	CSVPath         string
	// Outcome is "completed" or "failed".
	Outcome   string
	ElapsedMs int64
}

// Catalog wraps SQLite access to the session index.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog database and applies migrations.
func Open(path string) (*Catalog, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			device TEXT NOT NULL,
			bits INTEGER NOT NULL,
			interval_seconds INTEGER NOT NULL,
			folds INTEGER NOT NULL,
			samples INTEGER NOT NULL,
			final_z REAL NOT NULL,
			bin_path TEXT NOT NULL,
			csv_path TEXT NOT NULL,
			outcome TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Insert stores a finished session and returns its row id.
func (c *Catalog) Insert(ctx context.Context, s Session) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, device, bits, interval_seconds, folds, samples, final_z, bin_path, csv_path, outcome, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.StartedAt.Format(time.RFC3339Nano),
		s.Device,
		s.Bits,
		s.IntervalSeconds,
		s.Folds,
		s.Samples,
		s.FinalZ,
		s.BinPath,
		s.CSVPath,
		s.Outcome,
		s.ElapsedMs,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent sessions, newest first. limit <= 0 returns
// all of them.
func (c *Catalog) List(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT id, started_at, device, bits, interval_seconds, folds, samples, final_z, bin_path, csv_path, outcome, elapsed_ms
	          FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var started string
		if err := rows.Scan(&s.ID, &started, &s.Device, &s.Bits, &s.IntervalSeconds, &s.Folds, &s.Samples, &s.FinalZ, &s.BinPath, &s.CSVPath, &s.Outcome, &s.ElapsedMs); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		s.StartedAt = t
		out = append(out, s)
	}
	return out, rows.Err()
}

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const (
	sqliteBusyTimeoutMs = 5000
	sqliteTimeLayout    = "2006-01-02T15:04:05.000Z07:00"
)

// SQLiteStore is an append-only audit sink backed by SQLite. It exposes no
// update or delete path; beyond appends, only a bounded read of recent
// entries is offered.
type SQLiteStore struct {
	db *sql.DB
}

var _ Sink = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (or creates) the audit database at path. The
// database uses WAL mode, a 5 s busy timeout, and a single connection
// (SQLite serialises writes). The schema is migrated automatically.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("audit: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", sqliteBusyTimeoutMs)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: set busy_timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_entries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   TEXT    NOT NULL,
			request_id  TEXT    NOT NULL,
			tool        TEXT    NOT NULL,
			intent      TEXT    NOT NULL DEFAULT '',
			inputs      TEXT    NOT NULL DEFAULT '',
			result      TEXT    NOT NULL,
			dry_run     INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			error       TEXT    NOT NULL DEFAULT ''
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: migrate schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append inserts an entry. Inserts are the only write path.
func (s *SQLiteStore) Append(entry Entry) error {
	dryRun := 0
	if entry.DryRun {
		dryRun = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO audit_entries
			(timestamp, request_id, tool, intent, inputs, result, dry_run, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.UTC().Format(sqliteTimeLayout),
		entry.RequestID,
		entry.Tool,
		entry.Intent,
		string(entry.Inputs),
		string(entry.Result),
		dryRun,
		entry.DurationMs,
		entry.Error,
	)
	if err != nil {
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, request_id, tool, intent, inputs, result, dry_run, duration_ms, error
		FROM audit_entries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			ts     string
			inputs string
			result string
			dryRun int
		)
		if err := rows.Scan(&ts, &e.RequestID, &e.Tool, &e.Intent, &inputs, &result, &dryRun, &e.DurationMs, &e.Error); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		if t, parseErr := time.Parse(sqliteTimeLayout, ts); parseErr == nil {
			e.Timestamp = t
		}
		if inputs != "" {
			e.Inputs = []byte(inputs)
		}
		e.Result = Outcome(result)
		e.DryRun = dryRun != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

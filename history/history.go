// Package history persists tunnel state transitions in a local SQLite
// database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/vpn"
)

const schema = `
CREATE TABLE IF NOT EXISTS transitions (
	id          TEXT PRIMARY KEY,
	unit        TEXT NOT NULL,
	previous    TEXT NOT NULL,
	current     TEXT NOT NULL,
	unexpected  INTEGER NOT NULL,
	warned      INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS transitions_recorded_at ON transitions (recorded_at);
`

// Entry is one recorded transition.
type Entry struct {
	ID         string
	Unit       string
	Previous   string
	Current    string
	Unexpected bool
	Warned     bool
	RecordedAt time.Time
}

// Store is a transition log backed by SQLite.
type Store struct {
	db   *sql.DB
	keep int
}

// DefaultPath returns ~/.local/share/tunnel-tray/history.db.
func DefaultPath() (string, error) {
	dir, err := common.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.HistoryFileName), nil
}

// Open opens or creates the database at path. Record prunes to keep rows;
// keep <= 0 disables pruning.
func Open(path string, keep int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// One writer; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db, keep: keep}, nil
}

// Record stores one transition. It implements vpn.Recorder.
func (s *Store) Record(ctx context.Context, unit string, u vpn.Update) error {
	at := u.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (id, unit, previous, current, unexpected, warned, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), unit, u.Previous.String(), u.Current.String(),
		u.Unexpected, u.Warned, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording transition: %w", err)
	}

	if s.keep > 0 {
		if _, err := s.Prune(ctx, s.keep); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, unit, previous, current, unexpected, warned, recorded_at
		 FROM transitions ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.ID, &e.Unit, &e.Previous, &e.Current, &e.Unexpected, &e.Warned, &at); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		e.RecordedAt = time.Unix(0, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes all but the newest keep entries and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transitions WHERE rowid NOT IN (
			SELECT rowid FROM transitions ORDER BY recorded_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ vpn.Recorder = (*Store)(nil)

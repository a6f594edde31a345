// Package settings is a small key-value store for the handful of scalars the
// clipper persists between insertions: the memoized Drive folder id, the
// sealed OAuth token blob, and the last targeted document.
//
// Usage:
//
//	import _ "modernc.org/sqlite"
//	store, err := settings.Open("clipd.db")
//
// In tests:
//
//	store := settings.OpenMemory(t)
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Well-known keys. Values are opaque strings; callers own the encoding.
const (
	KeyAssetFolderID = "stage.folder_id"
	KeyTokenBlob     = "session.token"
	KeyLastDocument  = "clip.last_document"
)

// ErrNotFound is returned by Get for keys that have never been Put.
var ErrNotFound = errors.New("settings: key not found")

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
) STRICT;
`

// Store persists scalar settings in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the settings database at path with the
// production pragmas applied. The caller must blank-import a driver that
// registers as "sqlite":
//
//	import _ "modernc.org/sqlite"
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("settings: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("settings: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("settings: schema: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store for testing. MaxOpenConns is pinned to
// 1 so every query sees the same in-memory database, and t.Cleanup closes it.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("settings.OpenMemory: %v", err)
	}
	s.db.SetMaxOpenConns(1)
	t.Cleanup(func() { s.Close() })
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("settings: get %s: %w", key, err)
	}
	return v, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, unixepoch())
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("settings: put %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("settings: delete %s: %w", key, err)
	}
	return nil
}

// Package history records run outcomes in a local SQLite database so
// "skiff history" can show what happened to which host and when.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded run.
type Entry struct {
	ID         int64
	StartedAt  time.Time
	Mode       string // "deploy" or "down"
	Host       string // target host, or "local"
	Image      string
	ServerName string
	Succeeded  bool
	Class      string // failure class, "" on success
	Message    string
}

// Store is a SQLite-backed run log.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL,
    mode TEXT NOT NULL,
    host TEXT NOT NULL,
    image TEXT NOT NULL,
    server_name TEXT NOT NULL,
    succeeded INTEGER NOT NULL,
    class TEXT NOT NULL,
    message TEXT NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one run entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	succeeded := 0
	if e.Succeeded {
		succeeded = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (started_at, mode, host, image, server_name, succeeded, class, message)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.StartedAt.UTC().Format(time.RFC3339),
		e.Mode, e.Host, e.Image, e.ServerName, succeeded, e.Class, e.Message)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first, capped at limit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, mode, host, image, server_name, succeeded, class, message
FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			started   string
			succeeded int
		)
		if err := rows.Scan(&e.ID, &started, &e.Mode, &e.Host, &e.Image,
			&e.ServerName, &succeeded, &e.Class, &e.Message); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, started); err == nil {
			e.StartedAt = ts
		}
		e.Succeeded = succeeded != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// DefaultPath returns the standard location of the history database,
// honoring XDG_STATE_HOME.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "skiff", "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "skiff", "history.db"), nil
}

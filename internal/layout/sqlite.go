package layout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const layoutsSchema = `
CREATE TABLE IF NOT EXISTS layouts (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    payload    TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`

// SQLiteSource reads layout records from a local SQLite database, the
// offline copy of the hosted layout table.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// layouts table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, layoutsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a record.
func (s *SQLiteSource) Put(ctx context.Context, id, name string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO layouts (id, name, payload, updated_at)
        VALUES (?, ?, ?, datetime('now'))
        ON CONFLICT(id) DO UPDATE SET name = excluded.name, payload = excluded.payload, updated_at = excluded.updated_at
    `, id, name, string(payload))
	if err != nil {
		return fmt.Errorf("put layout %q: %w", id, err)
	}
	return nil
}

// List implements Source.
func (s *SQLiteSource) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM layouts ORDER BY id`)
	if err != nil {
		return nil, listErr(err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Name); err != nil {
			return nil, listErr(err)
		}
		if sm.Name == "" {
			sm.Name = sm.ID
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, listErr(err)
	}
	return out, nil
}

// Fetch implements Source.
func (s *SQLiteSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM layouts WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fetchErr(id, ErrNotFound)
	}
	if err != nil {
		return nil, fetchErr(id, err)
	}
	return []byte(payload), nil
}

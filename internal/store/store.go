// Package store persists rendered knowledge reports in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Register the pure-Go SQLite driver with database/sql.
	_ "modernc.org/sqlite"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "knowledge_cache.db"

// Record is one saved report. Records are append-only.
type Record struct {
	ID        int64
	Query     string
	Category  string
	Report    string
	CreatedAt time.Time
}

// Config selects the database.
type Config struct {
	// Path is the database file or ":memory:".
	Path string
	// BusyTimeout configures PRAGMA busy_timeout. Zero means 5s.
	BusyTimeout time.Duration
}

// Store is safe for concurrent use; SQLite serializes writers, so the pool
// holds a single connection.
type Store struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS knowledge_records (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	query      TEXT NOT NULL,
	category   TEXT NOT NULL,
	report     TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// Open opens or creates the database and ensures the schema exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func buildDSN(cfg Config) (string, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = DefaultPath
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragma := fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds())
	if path == ":memory:" {
		return "file::memory:?" + pragma, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("sqlite: create database dir: %w", err)
		}
	}
	return "file:" + path + "?" + pragma, nil
}

// Save appends r and returns its id. CreatedAt defaults to now.
func (s *Store) Save(ctx context.Context, r Record) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store not open")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_records (query, category, report, created_at) VALUES (?, ?, ?, ?)`,
		r.Query, r.Category, r.Report, r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert record: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to n records, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not open")
	}
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, category, report, created_at FROM knowledge_records ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query records: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.ID, &r.Query, &r.Category, &r.Report, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scan record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

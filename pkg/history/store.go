// Package history keeps a local SQLite log of decode attempts made by
// stegoctl.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const timeLayout = time.RFC3339Nano

// Entry is one decode attempt. Exactly one of Message and Error is
// meaningful; both are empty when the image carried no message.
type Entry struct {
	ID             int64         `json:"id" yaml:"id"`
	CreatedAt      time.Time     `json:"created_at" yaml:"created_at"`
	FileName       string        `json:"file_name" yaml:"file_name"`
	Scheme         string        `json:"scheme" yaml:"scheme"`
	DetectedScheme string        `json:"detected_scheme,omitempty" yaml:"detected_scheme,omitempty"`
	Server         string        `json:"server" yaml:"server"`
	Message        string        `json:"message,omitempty" yaml:"message,omitempty"`
	Error          string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
}

type Store struct {
	db *sql.DB
}

// DefaultPath is ~/.stegosuite/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".stegosuite", "history.db"), nil
}

// Open creates the database file and its directory when missing and
// migrates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// sqlite allows one writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to history database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Save records e and returns it with ID and CreatedAt filled in.
func (s *Store) Save(ctx context.Context, e Entry) (Entry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO decodes (
			created_at, file_name, scheme, detected_scheme, server, message, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CreatedAt.UTC().Format(timeLayout),
		e.FileName,
		e.Scheme,
		e.DetectedScheme,
		e.Server,
		e.Message,
		e.Error,
		e.Duration.Milliseconds(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("save history entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, file_name, scheme, detected_scheme, server, message, error, duration_ms
		FROM decodes
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
			ms      int64
		)
		if err := rows.Scan(&e.ID, &created, &e.FileName, &e.Scheme, &e.DetectedScheme,
			&e.Server, &e.Message, &e.Error, &ms); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("history entry %d: %w", e.ID, err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear deletes every entry and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM decodes")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return errors.New("history store is not open")
	}
	return s.db.Close()
}

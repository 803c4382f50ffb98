package storage

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

type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache creates or opens a SQLite page cache.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// page workers share one connection; sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteCache{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

func (s *SQLiteCache) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS page_texts (
			key TEXT,
			model TEXT,
			text TEXT,
			created_at INTEGER,
			PRIMARY KEY (key, model)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_page_texts_model ON page_texts(model);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteCache) Get(ctx context.Context, key, model string) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM page_texts WHERE key = ? AND model = ?`, key, model).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *SQLiteCache) Put(ctx context.Context, key, model, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO page_texts (key, model, text, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key, model) DO UPDATE SET
			text=excluded.text,
			created_at=excluded.created_at
	`, key, model, text, time.Now().UTC().Unix())
	return err
}

func (s *SQLiteCache) Delete(ctx context.Context, key, model string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM page_texts WHERE key = ? AND model = ?`, key, model)
	return err
}

func (s *SQLiteCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM page_texts`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

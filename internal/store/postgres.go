package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to PostgreSQL and bootstraps the links table
// if it doesn't exist yet.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS links (
			key TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create links table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var target string
	err := s.db.QueryRowContext(ctx, "SELECT target FROM links WHERE key = $1", key).Scan(&target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get link: %w", err)
	}

	return target, nil
}

// Put upserts the mapping, keeping last-write-wins semantics.
func (s *PostgresStore) Put(ctx context.Context, key string, target string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO links (key, target)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET target = $2`,
		key, target,
	)
	if err != nil {
		return fmt.Errorf("failed to store link: %w", err)
	}

	return nil
}

func (s *PostgresStore) List(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, target FROM links")
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := make(map[string]string)
	for rows.Next() {
		var key, target string
		if err := rows.Scan(&key, &target); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links[key] = target
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	return links, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

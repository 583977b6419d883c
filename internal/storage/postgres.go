package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Bodies are stored as text: jsonb rejects the \u0000 escape that
// encoding/json emits for NUL characters in event fields.
var pgSchema = []string{`
CREATE TABLE IF NOT EXISTS ledger_documents (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`ALTER TABLE ledger_documents ALTER COLUMN body TYPE TEXT`,
}

// PostgresStore keeps documents as rows of ledger_documents.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the table if missing.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range pgSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("create ledger_documents: %w", err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Read(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM ledger_documents WHERE name = $1`, name,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return body, nil
}

func (s *PostgresStore) Write(ctx context.Context, name string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_documents (name, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		name, string(data),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

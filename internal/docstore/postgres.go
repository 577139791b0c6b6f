package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/intakedesk/internal/db"
	"go.uber.org/zap"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		key        text PRIMARY KEY,
		body       jsonb NOT NULL,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`

// PostgresBackend stores each key as one jsonb row. It replaces the whole
// row on every Put; there is no row versioning, so concurrent writers from
// different processes still overwrite each other.
type PostgresBackend struct {
	db *db.DB
}

func NewPostgresBackend(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresBackend, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for the postgres store backend")
	}
	database, err := db.New(ctx, databaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx, postgresSchema); err != nil {
		database.Close()
		return nil, err
	}
	return &PostgresBackend{db: database}, nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := b.db.Pool().QueryRow(ctx, `SELECT body FROM documents WHERE key = $1`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select document %s: %w", key, err)
	}
	return body, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO documents (key, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`

	if _, err := b.db.Pool().Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert document %s: %w", key, err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.Pool().Exec(ctx, `DELETE FROM documents WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	b.db.Close()
	return nil
}

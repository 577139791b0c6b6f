package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New opens a pgx pool from a DATABASE_URL style connection string and
// pings it once before returning.
//
// Why a URL rather than host, port and user fields?
//   - pgxpool.ParseConfig reads postgres:// URLs directly, sslmode and
//     escaped passwords included.
//   - DATABASE_URL is what the config layer and most hosting platforms
//     already hand over.
//
// The entity document is a single row, so the pool stays small: every write
// rewrites that row and reads are one key lookup.
func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	poolConfig.MaxConns = 8
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Don't hand back a pool that can't reach the server.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	logger = logger.Named("db")
	logger.Info("DB connection established",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.Int32("max_conns", poolConfig.MaxConns),
	)
	return &DB{
		pool:   pool,
		logger: logger,
	}, nil
}

func (db *DB) Close() {
	db.logger.Info("closing pool")
	db.pool.Close()
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// EnsureSchema runs idempotent DDL (CREATE ... IF NOT EXISTS) at startup.
// There are no migrations: the schema is one table that never changes.
func (db *DB) EnsureSchema(ctx context.Context, ddl ...string) error {
	for _, stmt := range ddl {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	db.logger.Debug("schema ready", zap.Int("statements", len(ddl)))
	return nil
}

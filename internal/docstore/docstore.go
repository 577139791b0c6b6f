// Package docstore holds the key/value backends that persist the entity
// document and the session identity. A backend stores opaque bytes under a
// string key; it knows nothing about entities.
package docstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Backend is a byte store addressed by key. Get returns nil, nil when the key
// has never been written.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Kind selects a Backend implementation.
type Kind string

const (
	KindFile     Kind = "file"
	KindMemory   Kind = "memory"
	KindSQLite   Kind = "sqlite"
	KindRedis    Kind = "redis"
	KindPostgres Kind = "postgres"
)

// Options carries what each backend needs. Only the fields for the chosen
// Kind are read.
type Options struct {
	Kind        Kind
	Path        string // file: directory; sqlite: database file
	RedisURL    string
	DatabaseURL string
}

// Open builds the backend named by opts.Kind.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Backend, error) {
	logger = logger.Named("docstore")

	switch opts.Kind {
	case KindFile, "":
		return NewFileBackend(opts.Path)
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindSQLite:
		return NewSQLiteBackend(ctx, opts.Path, logger)
	case KindRedis:
		return NewRedisBackend(ctx, opts.RedisURL, logger)
	case KindPostgres:
		return NewPostgresBackend(ctx, opts.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", opts.Kind)
	}
}

package repository

import (
	"context"
	"errors"

	"github.com/lalith-99/intakedesk/internal/models"
)

// ErrNotFound is returned by Update when the id does not exist. Get never
// returns it: a missing record is nil, nil.
var ErrNotFound = errors.New("record not found")

// Patch is a partial record keyed by JSON field name. Keys present in the
// patch overwrite the stored value; keys absent are left alone.
type Patch map[string]any

// Every method takes context.Context first: the remote implementation does
// network I/O and the local one may sit on Redis or Postgres.

// Repository is the entity store contract for one entity type. The local
// (document-backed) and remote (HTTP) implementations are interchangeable
// and are chosen once at startup.
type Repository[T any] interface {
	// Filter returns every record whose fields equal every value in where.
	// An empty where returns the whole collection. order names a field to
	// sort by, "-" prefixed for descending; null or missing values sort last.
	Filter(ctx context.Context, where Where, order string) ([]*T, error)

	// Get returns nil, nil if not found.
	Get(ctx context.Context, id string) (*T, error)

	// Create assigns id, created_date and updated_date, stores the record at
	// the head of its collection and returns it.
	Create(ctx context.Context, rec *T) (*T, error)

	// Update merges patch into the stored record and refreshes updated_date.
	// Returns ErrNotFound if the id does not exist.
	Update(ctx context.Context, id string, patch Patch) (*T, error)

	// Delete removes the record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

type (
	FirmRepository         = Repository[models.Firm]
	IntakeRepository       = Repository[models.Intake]
	EmailHistoryRepository = Repository[models.EmailHistory]
	MessageRepository      = Repository[models.Message]
)

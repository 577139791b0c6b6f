package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lalith-99/intakedesk/internal/models"
)

// Collection is a Repository with the entity type erased, for callers that
// pick the entity by name at runtime (HTTP routes, the CLI). Records go in
// as JSON and come out as the typed value boxed in any.
type Collection interface {
	Entity() string
	Filter(ctx context.Context, where Where, order string) (any, error)
	Get(ctx context.Context, id string) (any, error)
	Create(ctx context.Context, body json.RawMessage) (any, error)
	Update(ctx context.Context, id string, patch Patch) (any, error)
	Delete(ctx context.Context, id string) error
}

type collection[T any] struct {
	entity string
	repo   Repository[T]
}

func NewCollection[T any](entity string, repo Repository[T]) Collection {
	return &collection[T]{entity: entity, repo: repo}
}

func (c *collection[T]) Entity() string { return c.entity }

func (c *collection[T]) Filter(ctx context.Context, where Where, order string) (any, error) {
	return c.repo.Filter(ctx, where, order)
}

// Get returns an untyped nil when the record does not exist, so callers can
// compare the result with nil.
func (c *collection[T]) Get(ctx context.Context, id string) (any, error) {
	rec, err := c.repo.Get(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec, nil
}

// fieldCreator is implemented by repositories that can store a record as
// the JSON object it arrived as, keys T does not declare included.
type fieldCreator[T any] interface {
	CreateFields(ctx context.Context, fields map[string]json.RawMessage) (*T, error)
}

// Create decodes body into T first so a field of the wrong type is reported
// as ErrInvalid before anything is stored.
func (c *collection[T]) Create(ctx context.Context, body json.RawMessage) (any, error) {
	var rec T
	if err := decodeBody(body, &rec); err != nil {
		return nil, err
	}
	fc, ok := c.repo.(fieldCreator[T])
	if !ok {
		return c.repo.Create(ctx, &rec)
	}
	var fields map[string]json.RawMessage
	if err := decodeBody(body, &fields); err != nil {
		return nil, err
	}
	return fc.CreateFields(ctx, fields)
}

func (c *collection[T]) Update(ctx context.Context, id string, patch Patch) (any, error) {
	return c.repo.Update(ctx, id, patch)
}

func (c *collection[T]) Delete(ctx context.Context, id string) error {
	return c.repo.Delete(ctx, id)
}

// decodeBody treats a body of the wrong shape as an invalid record.
func decodeBody(body json.RawMessage, v any) error {
	if len(body) == 0 {
		body = json.RawMessage("{}")
	}
	err := json.Unmarshal(body, v)
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &typeErr), errors.As(err, &syntaxErr):
		return fmt.Errorf("%w: %v", models.ErrInvalid, err)
	default:
		return fmt.Errorf("decode record: %w", err)
	}
}

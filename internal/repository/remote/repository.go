package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
)

// Repository is the HTTP-backed repository.Repository for entity T. It maps
// the backend's 404s onto the same results the local store gives: nil from
// Get, ErrNotFound from Update. A 400 from a write wraps models.ErrInvalid.
type Repository[T any] struct {
	client *Client
	entity string
}

var (
	_ repository.FirmRepository   = (*Repository[models.Firm])(nil)
	_ repository.IntakeRepository = (*Repository[models.Intake])(nil)
)

func NewRepository[T any](client *Client, entity string) *Repository[T] {
	return &Repository[T]{client: client, entity: entity}
}

func (r *Repository[T]) Filter(ctx context.Context, where repository.Where, order string) ([]*T, error) {
	q := where.Query()
	if order != "" {
		q.Set(repository.OrderParam, order)
	}

	var out []*T
	if err := r.client.DoJSON(ctx, http.MethodGet, r.client.Endpoint(q, "api", r.entity), nil, &out); err != nil {
		return nil, fmt.Errorf("filter %s: %w", r.entity, err)
	}
	if out == nil {
		out = []*T{}
	}
	return out, nil
}

// Get with an empty id is a miss, not a request: "/api/<Entity>/" would
// reach the list route.
func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, nil
	}
	var out T
	err := r.client.DoJSON(ctx, http.MethodGet, r.client.Endpoint(nil, "api", r.entity, id), nil, &out)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.entity, err)
	}
	return &out, nil
}

func (r *Repository[T]) Create(ctx context.Context, rec *T) (*T, error) {
	return r.create(ctx, rec)
}

// CreateFields posts a record that arrived as a JSON object unchanged, so
// keys T does not declare reach the backend.
func (r *Repository[T]) CreateFields(ctx context.Context, fields map[string]json.RawMessage) (*T, error) {
	return r.create(ctx, fields)
}

func (r *Repository[T]) create(ctx context.Context, body any) (*T, error) {
	var out T
	err := r.client.DoJSON(ctx, http.MethodPost, r.client.Endpoint(nil, "api", r.entity), body, &out)
	if IsStatus(err, http.StatusBadRequest) {
		return nil, fmt.Errorf("create %s: %w: %v", r.entity, models.ErrInvalid, err)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.entity, err)
	}
	return &out, nil
}

func (r *Repository[T]) Update(ctx context.Context, id string, patch repository.Patch) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("%s with empty id: %w", r.entity, repository.ErrNotFound)
	}
	var out T
	err := r.client.DoJSON(ctx, http.MethodPatch, r.client.Endpoint(nil, "api", r.entity, id), patch, &out)
	if IsStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("%s %s: %w", r.entity, id, repository.ErrNotFound)
	}
	if IsStatus(err, http.StatusBadRequest) {
		return nil, fmt.Errorf("update %s: %w: %v", r.entity, models.ErrInvalid, err)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", r.entity, err)
	}
	return &out, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := r.client.DoJSON(ctx, http.MethodDelete, r.client.Endpoint(nil, "api", r.entity, id), nil, nil); err != nil {
		return fmt.Errorf("delete %s: %w", r.entity, err)
	}
	return nil
}

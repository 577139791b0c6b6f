package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lalith-99/intakedesk/internal/docstore"
	"github.com/lalith-99/intakedesk/internal/models"
)

// DefaultSessionKey is the backend key holding the local session identity.
const DefaultSessionKey = "lawyer_ai_intake_user_v1"

// SessionStore holds at most one identity. Load returns nil, nil when the
// session is empty.
type SessionStore interface {
	Load(ctx context.Context) (*models.User, error)
	Save(ctx context.Context, u *models.User) error
	Clear(ctx context.Context) error
}

// BackendSession keeps the identity as JSON under one docstore key, next to
// the entity document.
type BackendSession struct {
	backend docstore.Backend
	key     string
}

func NewBackendSession(backend docstore.Backend, key string) *BackendSession {
	if key == "" {
		key = DefaultSessionKey
	}
	return &BackendSession{backend: backend, key: key}
}

func (s *BackendSession) Load(ctx context.Context) (*models.User, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &u, nil
}

func (s *BackendSession) Save(ctx context.Context, u *models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *BackendSession) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

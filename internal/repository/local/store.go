// Package local implements the entity repositories over a single JSON
// document held in a docstore.Backend.
//
// Every entity collection lives in one document under one key. Each write
// loads the document, changes one collection and rewrites the whole thing.
//
// Known limitation: lost updates across processes. The mutex in Store only
// serialises callers that share the same Store value. Two processes pointed
// at the same backend key (two servers, or intakectl next to a server) each
// do their own read-modify-write and whichever saves last silently wins.
// Nothing here detects or resolves that.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/intakedesk/internal/docstore"
	"github.com/lalith-99/intakedesk/internal/models"
	"go.uber.org/zap"
)

// DefaultKey is the backend key holding the entity document.
const DefaultKey = "lawyer_ai_intake_db_v1"

// document maps entity name to its collection, newest first.
type document map[string][]json.RawMessage

type Store struct {
	backend docstore.Backend
	key     string
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger

	mu sync.Mutex
}

type Option func(*Store)

// WithKey overrides the backend key the document is stored under.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc replaces the uuid generator.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func NewStore(backend docstore.Backend, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logger.Named("local_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load reads the document. A key that was never written yields an empty
// document; bytes that don't decode are an error, not a reset.
func (s *Store) load(ctx context.Context) (document, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	doc := document{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", s.key, err)
		}
	}
	for _, name := range models.Entities {
		if doc[name] == nil {
			doc[name] = []json.RawMessage{}
		}
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, doc document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// read runs fn against a freshly loaded document.
func (s *Store) read(ctx context.Context, fn func(document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// write loads the document, lets fn modify it and saves it when fn reports
// a change.
func (s *Store) write(ctx context.Context, fn func(document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return s.save(ctx, doc)
}

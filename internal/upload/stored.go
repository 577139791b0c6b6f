package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lalith-99/intakedesk/internal/storage"
)

// FilesPrefix is the route stored files are served from.
const FilesPrefix = "/api/files/"

// Stored writes the file to a storage backend and returns the path the
// server serves it from.
type Stored struct {
	store storage.Storage
}

func NewStored(store storage.Storage) *Stored {
	return &Stored{store: store}
}

func (s *Stored) Upload(ctx context.Context, f *File) (string, error) {
	if err := check(f); err != nil {
		return "", err
	}
	p, err := s.store.Upload(ctx, f.Name, f.mimeType(), f.Body)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", f.Name, err)
	}
	return FilesPrefix + p, nil
}

// Remove deletes a file this uploader stored, given the URL Upload
// returned. URLs it did not produce (data URIs, external links) are left
// alone, as are files already gone.
func (s *Stored) Remove(ctx context.Context, fileURL string) error {
	p, ok := strings.CutPrefix(fileURL, FilesPrefix)
	if !ok || p == "" {
		return nil
	}
	if err := s.store.Delete(ctx, p); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

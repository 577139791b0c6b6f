// Package storage keeps uploaded files for the server's /api/upload route,
// on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Download when nothing is stored at the path.
var ErrNotFound = errors.New("file not found")

// Storage stores file bodies under generated paths.
type Storage interface {
	// Upload stores data and returns the storage path.
	Upload(ctx context.Context, filename, contentType string, data io.Reader) (string, error)

	// Download opens the file at a storage path. The caller closes it.
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, storagePath string) error
}

// Type selects a Storage backend. TypeInline means files are not stored at
// all and uploads come back as data URIs; NewStorage rejects it.
type Type string

const (
	TypeInline Type = "inline"
	TypeLocal  Type = "local"
	TypeS3     Type = "s3"
)

type Config struct {
	Type         Type
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case TypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for s3 upload storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// generateStoragePath spreads files over 256 prefixes and keeps a sanitised
// copy of the original name for readability.
func generateStoragePath(fileID uuid.UUID, filename string) string {
	filename = path.Base(filepath.ToSlash(filename))
	if filename == "." || filename == "/" {
		filename = ""
	}
	ext := filepath.Ext(filename)
	baseName := strings.TrimSuffix(filename, ext)
	baseName = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "..", "_").Replace(baseName)
	if baseName == "" {
		baseName = "file"
	}

	id := fileID.String()
	return fmt.Sprintf("%s/%s_%s%s", id[:2], id, baseName, ext)
}

// cleanStoragePath rejects paths that would leave the storage root.
func cleanStoragePath(storagePath string) (string, error) {
	p := path.Clean("/" + filepath.ToSlash(storagePath))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "", fmt.Errorf("invalid storage path %q", storagePath)
	}
	return p, nil
}

// ContentType guesses a bare MIME type (no parameters) from the file
// extension.
func ContentType(filename string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		t, _, _ = strings.Cut(t, ";")
		return strings.TrimSpace(t)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

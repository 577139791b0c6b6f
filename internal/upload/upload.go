// Package upload turns a file into a URL an Intake or Message can reference.
package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/lalith-99/intakedesk/internal/storage"
)

// ErrNoFile is returned when there is nothing to upload.
var ErrNoFile = errors.New("no file provided")

// File is one file to upload. ContentType may be empty.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

func (f *File) mimeType() string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return storage.ContentType(f.Name)
}

// Uploader returns the URL of the uploaded file.
type Uploader interface {
	Upload(ctx context.Context, f *File) (string, error)
}

func check(f *File) error {
	if f == nil || f.Body == nil {
		return ErrNoFile
	}
	return nil
}

// Inline stores nothing: the URL is a base64 data URI carrying the bytes.
type Inline struct{}

func (Inline) Upload(_ context.Context, f *File) (string, error) {
	if err := check(f); err != nil {
		return "", err
	}
	data, err := io.ReadAll(f.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}
	return "data:" + f.mimeType() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

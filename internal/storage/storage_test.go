package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	p, err := s.Upload(ctx, "lease agreement.pdf", "application/pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "_lease_agreement.pdf"), p)

	rc, err := s.Download(ctx, p)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(body))

	require.NoError(t, s.Delete(ctx, p))
	_, err = s.Download(ctx, p)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, p), "deleting twice is fine")
}

func TestLocalStorageStaysInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base + "/files")
	require.NoError(t, err)

	_, err = s.Download(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound, "traversal is clamped to the storage root")

	_, err = s.Download(ctx, "")
	assert.Error(t, err)
}

func TestGenerateStoragePath(t *testing.T) {
	id := uuid.MustParse("3f2c1a9e-0000-4000-8000-000000000000")
	assert.Equal(t, "3f/3f2c1a9e-0000-4000-8000-000000000000_my_file.txt", generateStoragePath(id, "my file.txt"))
	assert.Equal(t, "3f/3f2c1a9e-0000-4000-8000-000000000000_passwd", generateStoragePath(id, "../../etc/passwd"))
	assert.Equal(t, "3f/3f2c1a9e-0000-4000-8000-000000000000_file", generateStoragePath(id, ""))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("a.PDF"))
	assert.Equal(t, "text/plain", ContentType("notes.txt"))
	assert.Equal(t, "application/msword", ContentType("brief.doc"))
	assert.Equal(t, "application/octet-stream", ContentType("blob"))
}

func TestNewStorageRejectsInline(t *testing.T) {
	_, err := NewStorage(context.Background(), Config{Type: TypeInline})
	assert.Error(t, err)

	_, err = NewStorage(context.Background(), Config{Type: TypeS3})
	assert.ErrorContains(t, err, "AWS_S3_BUCKET")
}

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/intakedesk/internal/storage"
	"github.com/lalith-99/intakedesk/internal/upload"
	"go.uber.org/zap"
)

type UploadHandler struct {
	uploads upload.Uploader
	files   storage.Storage
	logger  *zap.Logger
}

// NewUploadHandler takes a nil files when uploads are inlined; /api/files
// then has nothing to serve.
func NewUploadHandler(uploads upload.Uploader, files storage.Storage, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, files: files, logger: logger}
}

// Upload handles POST /api/upload with multipart field "file".
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.logger, upload.ErrNoFile, "")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, h.logger, err, "failed to read upload")
		return
	}
	defer f.Close()

	url, err := h.uploads.Upload(c.Request.Context(), &upload.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		respondError(c, h.logger, err, "upload failed")
		return
	}

	h.logger.Info("file uploaded", zap.String("name", fh.Filename), zap.Int64("size", fh.Size))
	c.JSON(http.StatusOK, upload.Response{FileURL: url})
}

// File handles GET /api/files/*path.
func (h *UploadHandler) File(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	p := strings.TrimPrefix(c.Param("path"), "/")
	rc, err := h.files.Download(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err, "failed to read file")
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, storage.ContentType(p), rc, nil)
}

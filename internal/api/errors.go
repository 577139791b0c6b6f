package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"github.com/lalith-99/intakedesk/internal/storage"
	"github.com/lalith-99/intakedesk/internal/upload"
	"go.uber.org/zap"
)

// respondError maps store and upload sentinels to 400/404. Anything else is
// logged and answered with a generic 500 carrying msg.
func respondError(c *gin.Context, logger *zap.Logger, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrInvalid), errors.Is(err, upload.ErrNoFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		logger.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"go.uber.org/zap"
)

// EntityHandler serves the CRUD routes for one entity collection.
//
// One handler is built per entity in NewRouter, each over the type-erased
// repository.Collection for that entity.
//
// Why a Collection and not the typed Repository[T]?
//   - The five routes are identical for every entity; only decoding differs,
//     and Collection does that behind one interface.
//   - The handler never sees T, so a new entity needs a models.Entities
//     entry and a client field, not a new handler.
type EntityHandler struct {
	col    repository.Collection
	logger *zap.Logger
}

func NewEntityHandler(col repository.Collection, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{col: col, logger: logger}
}

// List handles GET /api/{Entity}?field=value&order=-created_date
//
// Every query parameter except order is an exact-match filter compared
// against the field's text form.
func (h *EntityHandler) List(c *gin.Context) {
	q := c.Request.URL.Query()
	records, err := h.col.Filter(c.Request.Context(), repository.WhereFromQuery(q), q.Get(repository.OrderParam))
	if err != nil {
		respondError(c, h.logger, err, "failed to list "+h.col.Entity())
		return
	}
	c.JSON(http.StatusOK, records)
}

// Get handles GET /api/{Entity}/:id
func (h *EntityHandler) Get(c *gin.Context) {
	rec, err := h.col.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "failed to get "+h.col.Entity())
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": h.col.Entity() + " not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Create handles POST /api/{Entity}
func (h *EntityHandler) Create(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	rec, err := h.col.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, h.logger, err, "failed to create "+h.col.Entity())
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Update handles PATCH /api/{Entity}/:id with a partial record.
func (h *EntityHandler) Update(c *gin.Context) {
	var patch repository.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, h.logger, invalidBody(err), "")
		return
	}
	rec, err := h.col.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err, "failed to update "+h.col.Entity())
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /api/{Entity}/:id. Unknown ids succeed too. The
// body is {"ok":true} rather than empty because browser clients parse every
// response as JSON.
func (h *EntityHandler) Delete(c *gin.Context) {
	if err := h.col.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "failed to delete "+h.col.Entity())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func invalidBody(err error) error {
	return fmt.Errorf("%w: %v", models.ErrInvalid, err)
}

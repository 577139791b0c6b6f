package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/intakedesk/internal/functions"
	"go.uber.org/zap"
)

type FunctionHandler struct {
	fn     functions.Invoker
	logger *zap.Logger
}

func NewFunctionHandler(fn functions.Invoker, logger *zap.Logger) *FunctionHandler {
	return &FunctionHandler{fn: fn, logger: logger}
}

// Invoke handles POST /api/functions/:name. The function's result body is
// returned as-is; an ok=false result is still a 200.
func (h *FunctionHandler) Invoke(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	name := c.Param("name")
	res, err := h.fn.Invoke(c.Request.Context(), name, json.RawMessage(body))
	if err != nil {
		respondError(c, h.logger, err, "function "+name+" failed")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Data)
}

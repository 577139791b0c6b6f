// Package api is the HTTP backend. It serves the same contract the remote
// client speaks, so a client pointed at this server behaves like a local one.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/intakedesk/internal/client"
	"github.com/lalith-99/intakedesk/internal/middleware"
	"github.com/lalith-99/intakedesk/internal/models"
	"go.uber.org/zap"
)

type RouterConfig struct {
	JWTSecret    string
	SessionTTL   time.Duration
	SecureCookie bool
}

// NewRouter builds the gin engine over a local-mode client.
//
// Middleware order matters:
//   - Recovery first, so a panic anywhere below still yields a 500.
//   - RequestLogger next; it logs after c.Next() and so sees the session
//     that Session sets.
//   - Session last; it only reads the token and never aborts.
func NewRouter(cl *client.Client, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Session(cfg.JWTSecret))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")

	// Static routes per entity rather than /api/:entity so they never
	// collide with /api/functions, /api/auth and /api/upload.
	for _, name := range models.Entities {
		col, _ := cl.Collection(name)
		h := NewEntityHandler(col, logger.Named("api"))
		g := apiGroup.Group("/" + name)
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.PATCH("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	fn := NewFunctionHandler(cl.Functions, logger.Named("api"))
	apiGroup.POST("/functions/:name", fn.Invoke)

	ah := NewAuthHandler(cl.Accounts, cfg.JWTSecret, cfg.SessionTTL, cfg.SecureCookie, logger.Named("api"))
	authGroup := apiGroup.Group("/auth")
	authGroup.GET("/me", ah.Me)
	authGroup.POST("/login", ah.Login)
	authGroup.POST("/logout", ah.Logout)

	uh := NewUploadHandler(cl.Uploads, cl.Files, logger.Named("api"))
	apiGroup.POST("/upload", uh.Upload)
	apiGroup.GET("/files/*path", uh.File)

	return r
}

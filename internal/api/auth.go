package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/intakedesk/internal/auth"
	"github.com/lalith-99/intakedesk/internal/middleware"
	"github.com/lalith-99/intakedesk/internal/models"
	"go.uber.org/zap"
)

// SessionTokenHeader returns the session token to clients that cannot keep
// cookies; they send it back as a Bearer token.
const SessionTokenHeader = "X-Session-Token"

// AuthHandler serves /api/auth. The session lives in a signed cookie; the
// server keeps no session state of its own.
type AuthHandler struct {
	accounts  *auth.Service
	jwtSecret string
	ttl       time.Duration
	secure    bool
	logger    *zap.Logger
}

func NewAuthHandler(accounts *auth.Service, jwtSecret string, ttl time.Duration, secure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		jwtSecret: jwtSecret,
		ttl:       ttl,
		secure:    secure,
		logger:    logger,
	}
}

// Me handles GET /api/auth/me. A caller without a session gets a new demo
// identity and the cookie for it, the same as a local client would.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.accounts.Me(c.Request.Context(), h.session(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to load session")
		return
	}
	c.JSON(http.StatusOK, u)
}

// Login handles POST /api/auth/login with {"email","name"}. Both are
// optional; an empty body logs in as the demo identity.
func (h *AuthHandler) Login(c *gin.Context) {
	var id auth.Identity
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&id); err != nil {
			respondError(c, h.logger, invalidBody(err), "")
			return
		}
	}

	u, err := h.accounts.Login(c.Request.Context(), h.session(c), id)
	if err != nil {
		respondError(c, h.logger, err, "login failed")
		return
	}
	c.JSON(http.StatusOK, u)
}

// Logout handles POST /api/auth/logout with an optional {"redirect"}.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req auth.LogoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, h.logger, invalidBody(err), "")
			return
		}
	}

	redirect, err := h.accounts.Logout(c.Request.Context(), h.session(c), req.Redirect)
	if err != nil {
		respondError(c, h.logger, err, "logout failed")
		return
	}
	c.JSON(http.StatusOK, auth.LogoutResponse{Redirect: redirect})
}

func (h *AuthHandler) session(c *gin.Context) *cookieSession {
	return &cookieSession{c: c, h: h}
}

// cookieSession is the auth.SessionStore for one request: it reads the
// claims middleware.Session parsed and writes a fresh cookie on Save.
type cookieSession struct {
	c *gin.Context
	h *AuthHandler
}

func (s *cookieSession) Load(context.Context) (*models.User, error) {
	claims := middleware.GetClaims(s.c)
	if claims == nil {
		return nil, nil
	}
	return claims.User(), nil
}

func (s *cookieSession) Save(_ context.Context, u *models.User) error {
	token, err := auth.GenerateToken(u, s.h.jwtSecret, s.h.ttl)
	if err != nil {
		return err
	}
	claims, err := auth.ParseToken(token, s.h.jwtSecret)
	if err != nil {
		return err
	}
	middleware.SetClaims(s.c, claims)

	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(middleware.SessionCookie, token, int(s.h.ttl.Seconds()), "/", "", s.h.secure, true)
	s.c.Header(SessionTokenHeader, token)
	return nil
}

func (s *cookieSession) Clear(context.Context) error {
	middleware.SetClaims(s.c, nil)
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(middleware.SessionCookie, "", -1, "/", "", s.h.secure, true)
	return nil
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/intakedesk/internal/auth"
)

// SessionCookie carries the signed session token for browser clients.
const SessionCookie = "intakedesk_session"

// Context keys for the session claims in gin.Context.
//
// Why constants and not inline strings?
//   - c.Get("usr_id") compiles and quietly returns nothing; a misspelt
//     constant does not compile.
//   - Handlers and the request logger read the same keys from here.
const (
	ContextKeyClaims = "session_claims"
	ContextKeyUserID = "user_id"
	ContextKeyEmail  = "email"
)

// Session reads the session token from the cookie or, failing that, an
// "Authorization: Bearer" header, and stores the claims on the context.
//
// It never aborts. A missing or bad token just leaves the request without
// a session: nothing in the API is access-controlled, and /api/auth/me
// hands out a fresh demo identity to callers that have none.
//
// How it sits in the chain:
//   - It runs before every /api handler, including the entity routes.
//   - A valid token ends up on the context via SetClaims, then c.Next()
//     hands over to the handler.
//   - Handlers that care about the caller use GetClaims and check for nil.
//
// Why take secret as a parameter?
//   - The middleware does not import config; main passes cfg.JWTSecret.
//   - Tests sign tokens with any secret they like.
func Session(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := auth.ParseToken(token, secret)
		if err != nil {
			c.Next()
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookie); err == nil && v != "" {
		return v
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SetClaims replaces the request's session claims. nil clears them.
func SetClaims(c *gin.Context, claims *auth.Claims) {
	if claims == nil {
		c.Set(ContextKeyClaims, (*auth.Claims)(nil))
		c.Set(ContextKeyUserID, "")
		c.Set(ContextKeyEmail, "")
		return
	}
	c.Set(ContextKeyClaims, claims)
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyEmail, claims.Email)
}

// GetClaims returns the request's session claims, or nil.
func GetClaims(c *gin.Context) *auth.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, _ := val.(*auth.Claims)
	return claims
}

// GetUserID and GetEmail read the flattened claim fields; both are "" when
// the request has no session. The request logger uses them.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ContextKeyEmail)
}

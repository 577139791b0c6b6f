package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lalith-99/intakedesk/internal/models"
)

const issuer = "intakedesk"

// Claims is the payload of a session token. The server has no user table,
// so the token carries the whole identity and is the only place it lives
// between requests.
//
// Login signs these fields into a token; on every later request the Session
// middleware parses it back, and that is how the server knows who is
// calling without a lookup.
//
// Why embed jwt.RegisteredClaims?
//   - It supplies the standard exp, iat, iss and sub fields, which ParseToken
//     validates without extra code.
//   - Tools such as the jwt.io debugger show them by their usual names.
//   - The identity fields (UserID, Email, Name) sit on top.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	// Created is when the identity was first issued, kept across refreshes.
	Created time.Time `json:"created_date,omitzero"`
	jwt.RegisteredClaims
}

// User rebuilds the session identity from the claims.
func (c *Claims) User() *models.User {
	return &models.User{
		ID:          c.UserID,
		Email:       c.Email,
		Name:        c.Name,
		FullName:    c.Name,
		CreatedDate: c.Created,
	}
}

// GenerateToken signs an HS256 token for u that expires after ttl.
//
// Parameters:
//   - u: the identity the token stands for. Its ID doubles as the subject.
//   - secret: the HMAC key (config.JWTSecret).
//   - ttl: lifetime, config.SessionTTL for server sessions.
//
// Why HS256?
//   - One process both issues and checks tokens, so a shared secret is
//     enough and there is no key pair to distribute.
//   - Should another service ever need to verify tokens without issuing
//     them, an asymmetric method (RS256, EdDSA) would replace it.
func GenerateToken(u *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Created: u.CreatedDate,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   u.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken verifies the signature, expiry and signing method of a token
// and returns its claims.
//
// Checked, in order:
//   - the algorithm is HMAC (no "none", no RSA key confusion);
//   - the signature matches secret;
//   - exp has not passed and iss is this service.
//
// Any failure comes back as one wrapped error; callers treat every bad token
// the same way, as no session.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			// Reject "none" and asymmetric algs before the signature check.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository/remote"
)

// Remote is the Authenticator for a client pointed at a backend. The
// session is whatever cookie the backend sets, kept in the client's jar.
type Remote struct {
	client *remote.Client
}

var _ Authenticator = (*Remote)(nil)

func NewRemote(client *remote.Client) *Remote {
	return &Remote{client: client}
}

// LogoutRequest and LogoutResponse are the /api/auth/logout bodies.
type LogoutRequest struct {
	Redirect string `json:"redirect,omitempty"`
}

type LogoutResponse struct {
	Redirect string `json:"redirect"`
}

func (r *Remote) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := r.client.DoJSON(ctx, http.MethodGet, r.client.Endpoint(nil, "api", "auth", "me"), nil, &u); err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return &u, nil
}

func (r *Remote) Login(ctx context.Context, id Identity) (*models.User, error) {
	var u models.User
	if err := r.client.DoJSON(ctx, http.MethodPost, r.client.Endpoint(nil, "api", "auth", "login"), id, &u); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &u, nil
}

func (r *Remote) Logout(ctx context.Context, redirect string) (string, error) {
	var out LogoutResponse
	endpoint := r.client.Endpoint(nil, "api", "auth", "logout")
	if err := r.client.DoJSON(ctx, http.MethodPost, endpoint, LogoutRequest{Redirect: redirect}, &out); err != nil {
		return "", fmt.Errorf("logout: %w", err)
	}
	if out.Redirect == "" {
		out.Redirect = "/"
	}
	return out.Redirect, nil
}

// Package auth is the identity stand-in. There are no passwords and no
// permission checks: a session holds one self-declared identity, and the
// first time an identity is seen a firm is created for it.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"go.uber.org/zap"
)

const (
	DemoEmail = "demo@lawyerai.local"
	DemoName  = "Demo User"

	DefaultFirmName = "Demo Law Firm"
	DefaultFirmSlug = "demo-law-firm"
)

// Identity is what a caller claims at login. Blank fields fall back to the
// demo identity.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Authenticator is the session API the client facade exposes. The local
// implementation is a Service bound to a SessionStore; Remote talks to the
// backend's /api/auth routes.
type Authenticator interface {
	Me(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, id Identity) (*models.User, error)
	Logout(ctx context.Context, redirect string) (string, error)
}

type Service struct {
	firms  repository.FirmRepository
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func NewService(firms repository.FirmRepository, logger *zap.Logger) *Service {
	return &Service{
		firms:  firms,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.Named("auth"),
	}
}

// Me returns the session identity, creating and saving the demo identity if
// the session is empty. Either way the identity ends up with a firm.
func (s *Service) Me(ctx context.Context, sess SessionStore) (*models.User, error) {
	u, err := sess.Load(ctx)
	if err != nil {
		return nil, err
	}

	if u == nil {
		u = s.newUser(Identity{})
		if err := sess.Save(ctx, u); err != nil {
			return nil, err
		}
		s.logger.Info("demo identity created", zap.String("user_id", u.ID))
	} else if u.FullName == "" {
		u.FullName = u.Name
	}

	if _, err := s.EnsureFirm(ctx, u.Email); err != nil {
		return nil, err
	}
	return u, nil
}

// Login replaces whatever the session held with a fresh identity.
func (s *Service) Login(ctx context.Context, sess SessionStore, id Identity) (*models.User, error) {
	u := s.newUser(id)
	if err := sess.Save(ctx, u); err != nil {
		return nil, err
	}
	if _, err := s.EnsureFirm(ctx, u.Email); err != nil {
		return nil, err
	}
	s.logger.Info("logged in", zap.String("user_id", u.ID), zap.String("email", u.Email))
	return u, nil
}

// Logout clears the session and hands back the redirect target. Stored
// entities are left alone. Following the redirect is the caller's job.
func (s *Service) Logout(ctx context.Context, sess SessionStore, redirect string) (string, error) {
	if err := sess.Clear(ctx); err != nil {
		return "", err
	}
	if redirect == "" {
		redirect = "/"
	}
	return redirect, nil
}

// EnsureFirm returns the firm the email created, else the first firm listing
// it as a user, else a newly created default firm. A blank email has no firm.
func (s *Service) EnsureFirm(ctx context.Context, email string) (*models.Firm, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}

	owned, err := s.firms.Filter(ctx, repository.Where{"created_by": email}, "")
	if err != nil {
		return nil, fmt.Errorf("find firm: %w", err)
	}
	if len(owned) > 0 {
		return owned[0], nil
	}

	all, err := s.firms.Filter(ctx, nil, "")
	if err != nil {
		return nil, fmt.Errorf("find firm: %w", err)
	}
	for _, f := range all {
		if f.HasMember(email) {
			return f, nil
		}
	}

	firm, err := s.firms.Create(ctx, DefaultFirm(email))
	if err != nil {
		return nil, fmt.Errorf("create default firm: %w", err)
	}
	s.logger.Info("default firm created", zap.String("firm_id", firm.ID), zap.String("created_by", email))
	return firm, nil
}

// DefaultFirm is the firm a new identity starts with.
func DefaultFirm(email string) *models.Firm {
	return &models.Firm{
		Name:               DefaultFirmName,
		Slug:               DefaultFirmSlug,
		PracticeAreas:      []string{"Family Law"},
		NotificationEmails: []string{email},
		UrgentOnly:         false,
		EnabledFields: map[string]bool{
			"phone":          true,
			"timeline":       true,
			"deadline":       true,
			"budget":         true,
			"opposing_party": true,
			"documents":      true,
		},
		FollowUpDays: 3,
		CreatedBy:    email,
		Users:        []string{email},
	}
}

func (s *Service) newUser(id Identity) *models.User {
	if id.Email == "" {
		id.Email = DemoEmail
	}
	if id.Name == "" {
		id.Name = DemoName
	}
	return &models.User{
		ID:          s.newID(),
		Email:       id.Email,
		Name:        id.Name,
		FullName:    id.Name,
		CreatedDate: s.now().UTC(),
	}
}

// Bind ties the service to one session, giving an Authenticator.
func (s *Service) Bind(sess SessionStore) *Bound {
	return &Bound{svc: s, sess: sess}
}

type Bound struct {
	svc  *Service
	sess SessionStore
}

var _ Authenticator = (*Bound)(nil)

func (b *Bound) Me(ctx context.Context) (*models.User, error) {
	return b.svc.Me(ctx, b.sess)
}

func (b *Bound) Login(ctx context.Context, id Identity) (*models.User, error) {
	return b.svc.Login(ctx, b.sess, id)
}

func (b *Bound) Logout(ctx context.Context, redirect string) (string, error) {
	return b.svc.Logout(ctx, b.sess, redirect)
}

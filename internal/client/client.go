// Package client wires the entity repositories, function dispatcher, auth
// and uploads for one process. The mode is fixed at construction: remote
// when API_BASE_URL is set, local otherwise. Callers never branch on it.
package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/lalith-99/intakedesk/internal/auth"
	"github.com/lalith-99/intakedesk/internal/config"
	"github.com/lalith-99/intakedesk/internal/docstore"
	"github.com/lalith-99/intakedesk/internal/functions"
	"github.com/lalith-99/intakedesk/internal/intake"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"github.com/lalith-99/intakedesk/internal/repository/local"
	"github.com/lalith-99/intakedesk/internal/repository/remote"
	"github.com/lalith-99/intakedesk/internal/storage"
	"github.com/lalith-99/intakedesk/internal/triage"
	"github.com/lalith-99/intakedesk/internal/upload"
	"go.uber.org/zap"
)

type Client struct {
	Firms     repository.FirmRepository
	Intakes   repository.IntakeRepository
	Emails    repository.EmailHistoryRepository
	Messages  repository.MessageRepository
	Functions functions.Invoker
	Auth      auth.Authenticator
	Uploads   upload.Uploader
	Workflows *intake.Service

	// Local mode only. Accounts binds per-request sessions on the server;
	// Files is nil when uploads are inlined.
	Accounts *auth.Service
	Files    storage.Storage

	remote  bool
	closers []func() error
}

// New builds a Client for cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if cfg.Remote() {
		return NewRemote(cfg, logger)
	}
	return NewLocal(ctx, cfg, logger)
}

// NewLocal opens the configured document backend and serves everything
// in-process.
func NewLocal(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	opts := docstore.Options{
		Kind:        docstore.Kind(cfg.StoreBackend),
		Path:        cfg.StorePath,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
	}
	if opts.Kind == docstore.KindSQLite {
		opts.Path = filepath.Join(cfg.StorePath, "intakedesk.db")
	}
	backend, err := docstore.Open(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	c, err := newLocal(ctx, backend, cfg, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return c, nil
}

func newLocal(ctx context.Context, backend docstore.Backend, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	rules, err := triage.LoadRules(cfg.TriageRulesPath)
	if err != nil {
		return nil, err
	}

	store := local.NewStore(backend, logger, local.WithKey(cfg.StoreKey))
	c := &Client{
		Firms:    local.NewRepository[models.Firm](store, models.EntityFirm),
		Intakes:  local.NewRepository[models.Intake](store, models.EntityIntake),
		Emails:   local.NewRepository[models.EmailHistory](store, models.EntityEmailHistory),
		Messages: local.NewRepository[models.Message](store, models.EntityMessage),
		closers:  []func() error{backend.Close},
	}
	c.Functions = functions.NewLocal(c.Intakes, c.Emails, triage.NewClassifier(rules), logger)
	c.Accounts = auth.NewService(c.Firms, logger)
	c.Auth = c.Accounts.Bind(auth.NewBackendSession(backend, cfg.SessionKey))

	var opts []intake.Option
	switch storage.Type(cfg.UploadStorage) {
	case storage.TypeInline, "":
		c.Uploads = upload.Inline{}
	default:
		files, err := storage.NewStorage(ctx, storage.Config{
			Type:         storage.Type(cfg.UploadStorage),
			LocalPath:    cfg.UploadLocalPath,
			S3Bucket:     cfg.S3Bucket,
			S3Region:     cfg.S3Region,
			AWSAccessKey: cfg.AWSAccessKey,
			AWSSecretKey: cfg.AWSSecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("open upload storage: %w", err)
		}
		c.Files = files
		stored := upload.NewStored(files)
		c.Uploads = stored
		opts = append(opts, intake.WithFiles(stored))
	}

	c.Workflows = intake.NewService(c.Firms, c.Intakes, c.Emails, c.Messages, c.Functions, logger, opts...)

	logger.Info("client ready",
		zap.String("mode", "local"),
		zap.String("store", cfg.StoreBackend),
		zap.String("uploads", cfg.UploadStorage))
	return c, nil
}

// NewRemote forwards every call to the backend at cfg.APIBaseURL.
func NewRemote(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	opts := []remote.ClientOption{remote.WithTimeout(cfg.HTTPTimeout)}
	if cfg.APIToken != "" {
		opts = append(opts, remote.WithToken(cfg.APIToken))
	}
	rc, err := remote.NewClient(cfg.APIBaseURL, logger, opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		Firms:     remote.NewRepository[models.Firm](rc, models.EntityFirm),
		Intakes:   remote.NewRepository[models.Intake](rc, models.EntityIntake),
		Emails:    remote.NewRepository[models.EmailHistory](rc, models.EntityEmailHistory),
		Messages:  remote.NewRepository[models.Message](rc, models.EntityMessage),
		Functions: functions.NewRemote(rc),
		Auth:      auth.NewRemote(rc),
		Uploads:   upload.NewRemote(rc),
		remote:    true,
		closers:   []func() error{func() error { rc.CloseIdle(); return nil }},
	}
	c.Workflows = intake.NewService(c.Firms, c.Intakes, c.Emails, c.Messages, c.Functions, logger)

	logger.Info("client ready", zap.String("mode", "remote"), zap.String("api_base_url", cfg.APIBaseURL))
	return c, nil
}

// IsRemote reports whether calls go to a backend rather than the local
// store. Local-only side effects, such as removing stored uploads, happen
// on the backend in that case.
func (c *Client) IsRemote() bool { return c.remote }

// Close releases the backend or idle connections.
func (c *Client) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Collection returns the untyped repository for an entity name as stored
// ("Firm", "Intake", "EmailHistory", "Message").
func (c *Client) Collection(entity string) (repository.Collection, bool) {
	switch entity {
	case models.EntityFirm:
		return repository.NewCollection(entity, c.Firms), true
	case models.EntityIntake:
		return repository.NewCollection(entity, c.Intakes), true
	case models.EntityEmailHistory:
		return repository.NewCollection(entity, c.Emails), true
	case models.EntityMessage:
		return repository.NewCollection(entity, c.Messages), true
	}
	return nil, false
}

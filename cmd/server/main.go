package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/intakedesk/internal/api"
	"github.com/lalith-99/intakedesk/internal/client"
	"github.com/lalith-99/intakedesk/internal/config"
	"github.com/lalith-99/intakedesk/internal/observ"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger("intakedesk-server", cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ---------------------------------------------------------------
	// 3. Open the store
	//
	// The server always runs in local mode. API_BASE_URL is for clients
	// talking to this process, not for the process itself.
	//
	// Why the signal context here and not context.Background()?
	//   - Opening Postgres or S3 can block on the network; Ctrl-C during
	//     startup should abort that instead of waiting it out.
	//   - The same context ends the serve loop below.
	// ---------------------------------------------------------------
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cl, err := client.NewLocal(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open client: %w", err)
	}
	// Closes the store backend (pgx pool, SQLite handle or Redis client)
	// whichever way run() returns.
	defer cl.Close()

	// ---------------------------------------------------------------
	// 4. Routes
	// ---------------------------------------------------------------
	router := api.NewRouter(cl, api.RouterConfig{
		JWTSecret:    cfg.JWTSecret,
		SessionTTL:   cfg.SessionTTL,
		SecureCookie: cfg.IsProduction(),
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ---------------------------------------------------------------
	// 5. Serve until SIGINT/SIGTERM, then drain
	// ---------------------------------------------------------------
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting intakedesk",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/blushbox/internal/config"
	"github.com/sujalbistaa/blushbox/internal/db"
	routes "github.com/sujalbistaa/blushbox/internal/http"
	"github.com/sujalbistaa/blushbox/internal/logging"
	"github.com/sujalbistaa/blushbox/internal/metrics"
	"github.com/sujalbistaa/blushbox/internal/store"
	"github.com/sujalbistaa/blushbox/internal/ws"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", logging.Err(err))
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (.env first, then the environment)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(logger)

	// 2. Initialize Database
	database, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			slog.Warn("close database", logging.Err(err))
		}
	}()

	// 3. Run Migrations
	slog.Info("running database migrations")
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("migrations complete")

	if cfg.SeedDemo {
		if _, err := db.Seed(context.Background(), database, time.Now()); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Initialize metrics and the WebSocket Hub
	var m *metrics.Metrics
	if cfg.Metrics {
		m = metrics.New()
	}
	hub := ws.NewHub(cfg.CORSOrigin, ws.WithClientCountHook(m.SetWebsocketClients))
	go hub.Run(ctx)

	// 5. Initialize Gin Router and routes
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	env := routes.NewEnv(store.New(database), hub, m, cfg)
	routes.SetupRoutes(ctx, router, env, cfg)

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exiting")
	return nil
}

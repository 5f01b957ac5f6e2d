/*
main.go - Application entry point

PURPOSE:
  Starts the forklift rental back office: configuration, logging, the
  entity store, the service layer, the overdue scheduler and the HTTP API.

STARTUP SEQUENCE:
  1. Load configuration (config.toml + FORKLIFT_* environment)
  2. Build the zap logger
  3. Open the entity store (sqlite or memory)
  4. Seed demo data when enabled and the store is empty
  5. Run one reconciliation, then start the cron scheduler
  6. Serve HTTP until SIGINT/SIGTERM

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests and a running reconciliation (30s timeout)
  3. Close the database
  4. Exit

EXAMPLES:
  # Run with the default sqlite file
  ./server

  # Run in memory with debug logging
  FORKLIFT_DATABASE_DRIVER=memory FORKLIFT_LOG_LEVEL=debug ./server

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
*/
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

	"go.uber.org/zap"

	"github.com/warp/forklift-rental/api"
	"github.com/warp/forklift-rental/config"
	"github.com/warp/forklift-rental/logger"
	"github.com/warp/forklift-rental/metrics"
	"github.com/warp/forklift-rental/rental"
	"github.com/warp/forklift-rental/rental/store"
	"github.com/warp/forklift-rental/service"
	"github.com/warp/forklift-rental/store/sqlite"
)

const shutdownTimeout = 30 * time.Second

// backend is what the server needs from an entity store.
type backend interface {
	rental.Store
	rental.RunLog
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()
	log = log.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	db, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	log.Info("entity store opened", zap.String("driver", cfg.Database.Driver), zap.String("path", cfg.Database.Path))

	m := metrics.New()
	svc := service.New(db, db, service.Options{
		Calculator: rental.Calculator{
			AnnualRate:          cfg.Rate(),
			LegacyDueDateCharge: cfg.Overdue.LegacyDueDateCharge,
		},
		Location: cfg.Location(),
		Logger:   log.Named("service"),
		Metrics:  m,
	})

	ctx := context.Background()
	if cfg.App.SeedDemo {
		if _, err := svc.SeedDemo(ctx); err != nil {
			return err
		}
	}

	var scheduler *api.Scheduler
	if cfg.Overdue.Enabled {
		scheduler = api.NewScheduler(svc, cfg.Overdue.Schedule, cfg.Location(), log)
		if _, err := scheduler.RunNow(ctx, service.TriggerStartup); err != nil {
			log.Warn("startup reconciliation failed", zap.Error(err))
		}
		if err := scheduler.Start(); err != nil {
			return err
		}
	}

	tokens := api.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	handler := api.NewHandler(svc, tokens, scheduler, api.Options{
		Logger:           log.Named("http"),
		Metrics:          m,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowDevLogin:    cfg.Auth.AllowDevLogin,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", server.Addr), zap.Bool("dev_login", cfg.Auth.AllowDevLogin))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (backend, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		return store.NewMemory(), func() {}, nil
	default:
		db, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, func() { db.Close() }, nil
	}
}

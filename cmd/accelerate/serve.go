// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accelerateai/accelerate/internal/ai"
	analyticspg "github.com/accelerateai/accelerate/internal/analytics/postgres"
	"github.com/accelerateai/accelerate/internal/auth"
	authpg "github.com/accelerateai/accelerate/internal/auth/postgres"
	"github.com/accelerateai/accelerate/internal/config"
	"github.com/accelerateai/accelerate/internal/httpapi"
	"github.com/accelerateai/accelerate/internal/logging"
	"github.com/accelerateai/accelerate/internal/observability"
	"github.com/accelerateai/accelerate/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the Accelerate API server: runs pending database migrations,
starts the session sweeper and the metrics endpoint, and serves the JSON API
until interrupted.`,
		RunE: runServe,
	}

	// Flags mirror config keys; koanf merges them over the config file.
	flags := cmd.Flags()
	flags.String("server.addr", ":8080", "API listen address")
	flags.String("metrics.addr", "127.0.0.1:9100", "metrics listen address")
	flags.String("log.level", "info", "log level (debug, info, warn, error)")
	flags.String("log.format", "json", "log format (json, text)")
	flags.Duration("session.ttl", 24*time.Hour, "session lifetime")
	flags.Bool("session.sliding", false, "extend sessions on each authenticated request")
	flags.Duration("session.sweep_interval", 10*time.Minute, "expired session sweep interval")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("accelerate", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := runMigrations(cfg.Database.URL); err != nil {
		return err
	}

	// Repositories and services.
	users := authpg.NewUserRepository(pool)
	sessions := authpg.NewSessionRepository(pool)

	authService, err := auth.NewService(users, sessions, auth.NewScryptHasher(),
		auth.WithTTL(cfg.Session.TTL),
		auth.WithSlidingExpiry(cfg.Session.Sliding),
		auth.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var assistant *ai.Assistant
	if cfg.AI.APIKey != "" {
		opts := []ai.ClientOption{ai.WithModel(cfg.AI.Model)}
		if cfg.AI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.AI.BaseURL))
		}
		client, err := ai.NewClient(cfg.AI.APIKey, opts...)
		if err != nil {
			return err
		}
		assistant, err = ai.NewAssistant(client)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set; AI endpoints disabled")
	}

	// Observability server: metrics plus health probes. Readiness flips on
	// once the API listener is up.
	var ready atomic.Bool
	obsServer := observability.NewServer(cfg.Metrics.Addr, ready.Load)
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
			logger.Error("failed to stop observability server", "error", stopErr)
		}
	}()
	metrics := obsServer.Metrics()

	// Session sweeper.
	sweeper, err := auth.NewSweeper(sessions, cfg.Session.SweepInterval, logger)
	if err != nil {
		return err
	}
	sweeper.OnSweep(func(deleted int64) {
		metrics.SessionsSweptTotal.Add(float64(deleted))
		metrics.SessionsActive.Sub(float64(deleted))
	})
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.Run(ctx)
	}()

	api, err := httpapi.New(httpapi.Config{
		Auth:         authService,
		Workflows:    analyticspg.NewWorkflowRepository(pool),
		Reports:      analyticspg.NewReportRepository(pool),
		Chats:        analyticspg.NewChatRepository(pool),
		Assistant:    assistant,
		Metrics:      metrics,
		Logger:       logger,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		logger.Info("api server started", "addr", cfg.Server.Addr)
		ready.Store(true)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			serveErrCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-serveErrCh:
		return oops.Code("SERVER_FAILED").Wrap(serveErr)
	case obsErr := <-obsErrCh:
		if obsErr != nil {
			return oops.Code("SERVER_FAILED").With("component", "observability").Wrap(obsErr)
		}
	}

	ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	<-sweeperDone

	logger.Info("api server stopped")
	return nil
}

// runMigrations applies pending migrations at startup so a fresh deploy is
// immediately usable.
func runMigrations(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	return migrator.Up()
}

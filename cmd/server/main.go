package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"helix/internal/auth"
	"helix/internal/backend"
	"helix/internal/config"
	"helix/internal/console"
	"helix/internal/handler"
	"helix/internal/logging"
	"helix/internal/notify/noop"
	"helix/internal/notify/ses"
	"helix/internal/notify/webhook"
	"helix/internal/port"
	"helix/internal/router"
	"helix/internal/routing"
	"helix/internal/session"
	"helix/internal/staging"
	"helix/internal/storage/memory"
	s3storage "helix/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tax := routing.Default()
	processor := backend.NewClient(&cfg.Backend, logger)
	verifier := auth.NewJWT(&cfg.JWT)

	// Initialize staging storage
	var store port.ObjectStorage
	switch cfg.Staging.Provider {
	case "s3":
		store, err = s3storage.NewStore(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 staging: %w", err)
		}
	case "memory", "":
		store = memory.NewStore()
	default:
		return fmt.Errorf("unknown staging provider %q", cfg.Staging.Provider)
	}
	stager := staging.NewStager(store, cfg.S3.Bucket, cfg.Staging.Prefix, logger)

	// Initialize notifiers
	var batchNotifier port.BatchNotifier
	var changeNotifier port.ChangeNotifier
	noopNotifier := noop.NewNotifier(logger)
	switch cfg.Notify.Provider {
	case "ses":
		sesNotifier, err := ses.NewNotifier(ctx, cfg.Notify.Region, cfg.Notify.FromAddress,
			cfg.Notify.FromName, cfg.Notify.ConsoleURL, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
		batchNotifier = sesNotifier
	default:
		batchNotifier = noopNotifier
	}
	changeNotifier = noopNotifier
	if cfg.Notify.WebhookURL != "" {
		hook := webhook.NewNotifier(cfg.Notify.WebhookURL, cfg.Notify.WebhookTTL, logger)
		defer hook.Close()
		changeNotifier = hook
	}

	// Per-operator consoles
	sessions := session.NewManager(func(operatorID string) *console.Controller {
		return console.New(operatorID, tax, processor, console.Options{
			MaxFileSize:               cfg.Upload.MaxFileSize(),
			RevalidateOnRoutingChange: cfg.Upload.RevalidateOnRoutingChange,
			RequireCredential:         cfg.Upload.RequireCredential,
			HistoryLimit:              cfg.Upload.HistoryLimit,
			BatchNotifier:             batchNotifier,
			ChangeNotifier:            changeNotifier,
			Logger:                    logger,
		})
	}, logger)
	go sessions.Run(ctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)

	// Initialize handlers
	consoleH := handler.NewConsoleHandler(sessions, stager, logger)
	routingH := handler.NewRoutingHandler(tax)
	healthH := handler.NewHealthHandler(processor)

	// Setup router
	r := router.Setup(logger, cfg.CORS.AllowedOrigins, verifier, consoleH, routingH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("staging", cfg.Staging.Provider),
			zap.String("notify", cfg.Notify.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := sessions.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("draining upload batches: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/eventledger/internal/config"
	"github.com/JonMunkholm/eventledger/internal/core"
	"github.com/JonMunkholm/eventledger/internal/logging"
	"github.com/JonMunkholm/eventledger/internal/storage"
	"github.com/JonMunkholm/eventledger/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"storage", cfg.Storage.Backend,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	service := core.NewService(ctx, storage.NewPersister(store), core.ServiceOptions{
		MaxConcurrentImports: cfg.Upload.MaxConcurrent,
		MaxImportWait:        cfg.Upload.MaxWaitTime,
	})

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active imports to complete (with timeout)
		if active := service.Limiter().Active(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		store.Close()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// gallery serves the photo gallery API: uploads, background captioning, listing and semantic search.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/formbricks/gallery/internal/config"
	"github.com/formbricks/gallery/internal/observability"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)

		return exitFailure
	}

	code := exitSuccess

	if err := app.Run(ctx); err != nil {
		logger.Error("Application stopped with error", "error", err)

		code = exitFailure
	}

	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)

		code = exitFailure
	}

	logger.Info("Server exited")

	return code
}

// Package app provides application lifecycle management for feed-mirror.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/sync/coordinator"
)

// ErrSourcesFailed is returned by MirrorApp.Run when failOnError is set and a source failed
var ErrSourcesFailed = errors.New("one or more sources failed")

// MirrorApp performs a single mirror run over all configured sources
type MirrorApp struct {
	config     *config.Config
	components *AppComponents
}

// Run executes one run and flushes run metrics.
// The summary is returned even when ErrSourcesFailed is.
func (app *MirrorApp) Run(ctx context.Context) (*coordinator.Summary, error) {
	summary, err := app.components.Coordinator.Run(ctx)
	if err != nil {
		return nil, err
	}

	if app.components.Telemetry != nil {
		if err := app.components.Telemetry.WriteTextfile(); err != nil {
			slog.WarnContext(ctx, "Failed to write metrics textfile", "error", err)
		}
	}

	if app.config.FailOnError && summary.HasFailures() {
		return summary, fmt.Errorf("%w: %d of %d", ErrSourcesFailed, len(summary.Failed), len(app.config.Sources))
	}
	return summary, nil
}

// Shutdown flushes and stops telemetry providers
func (app *MirrorApp) Shutdown(ctx context.Context) error {
	if app.components.Telemetry == nil {
		return nil
	}
	return app.components.Telemetry.Shutdown(ctx)
}

// GetConfig returns the application configuration
func (app *MirrorApp) GetConfig() *config.Config {
	return app.config
}

// ServerApp serves a published output directory over HTTP
type ServerApp struct {
	components *AppComponents
	httpServer *http.Server
}

// Start starts the HTTP server.
// This method blocks until the HTTP server stops or encounters an error
func (app *ServerApp) Start() error {
	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the server with the given timeout
func (app *ServerApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if app.components.Telemetry != nil {
		if err := app.components.Telemetry.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *ServerApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

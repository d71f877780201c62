package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// startHTTPServer serves router until ctx is cancelled or the listener
// fails, then shuts down the HTTP server followed by the rest of the
// application.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	app.notifySystemd(daemon.SdNotifyReady)

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server...")
	case err, ok := <-serveErr:
		if ok {
			app.logger.Error("server failed", slog.String("error", err.Error()))
			runErr = err
		}
	}

	app.notifySystemd(daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown failed: %w", err))
	}

	app.cleanup()

	app.logger.Info("server shutdown completed")
	return runErr
}

// notifySystemd reports state to systemd when running under a Type=notify unit.
func (app *application) notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		app.logger.Warn("sd_notify failed", slog.String("state", state), slog.String("error", err.Error()))
		return
	}
	if sent {
		app.logger.Debug("sd_notify sent", slog.String("state", state))
	}
}

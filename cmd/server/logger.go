package main

import (
	"fmt"
	"log/slog"

	"github.com/tasklytics/tasklytics-api/internal/config"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
)

// setupAppLogger configures the JSON logger and installs it as the default.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(logger.LoggerConfig{
		Level: cfg.Server.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return l, nil
}

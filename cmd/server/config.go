package main

import (
	"fmt"
	"log/slog"

	"github.com/tasklytics/tasklytics-api/internal/config"
)

// loadAppConfig loads the application configuration from the environment,
// an optional .env file and an optional config.yaml.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("notifier_transport", cfg.Notifier.Transport),
		slog.Bool("reminders_enabled", cfg.Reminder.Enabled))

	return cfg, nil
}

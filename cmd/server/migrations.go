package main

import (
	"context"
	"log/slog"

	"github.com/tasklytics/tasklytics-api/internal/platform/migrate"
)

// handleMigrations runs a goose command against the backend's embedded migrations.
func handleMigrations(ctx context.Context, db *database, command string, logger *slog.Logger) error {
	logger.Info("executing migrations",
		slog.String("command", command),
		slog.String("driver", db.driver))
	return migrate.Run(ctx, db.sql, db.migrations, command, logger)
}

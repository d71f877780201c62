// Package main implements the entry point for the Tasklytics API server,
// which stores users' tasks and e-mails them a reminder shortly before each
// task falls due.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tasklytics/tasklytics-api/internal/platform/migrate"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		fmt.Sprintf("run a database migration command and exit (%v)", migrate.Commands))
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrateCmd); err != nil {
		log.Printf("tasklytics-api: %v", err)
		os.Exit(1)
	}
}

// run loads configuration and either executes a migration command or serves
// the API until ctx is cancelled.
func run(ctx context.Context, migrateCmd string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer closeDatabase(db, logger)
		return handleMigrations(ctx, db, migrateCmd, logger)
	}

	if cfg.Database.MigrateOnStart {
		if err := handleMigrations(ctx, db, migrate.CommandUp, logger); err != nil {
			closeDatabase(db, logger)
			return err
		}
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		closeDatabase(db, logger)
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	logger.Info("starting tasklytics-api", slog.Int("port", cfg.Server.Port))
	return app.Run(ctx)
}

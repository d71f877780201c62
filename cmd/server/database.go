package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/tasklytics/tasklytics-api/internal/config"
	"github.com/tasklytics/tasklytics-api/internal/platform/migrate"
	"github.com/tasklytics/tasklytics-api/internal/platform/postgres"
	"github.com/tasklytics/tasklytics-api/internal/platform/sqlite"
	"github.com/tasklytics/tasklytics-api/internal/redact"
)

// database is an open connection together with the backend it talks to.
type database struct {
	driver string
	sql    *sql.DB
	// sqlx is set only for the sqlite backend, whose stores are built on sqlx.
	sqlx       *sqlx.DB
	migrations migrate.Source
}

// setupAppDatabase opens and verifies the configured database.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %s", redact.Error(err))
		}
		logger.Info("database connection established", slog.String("driver", "sqlite"))
		return &database{driver: "sqlite", sql: db.DB, sqlx: db, migrations: sqlite.Migrations()}, nil

	case "postgres":
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %s", redact.Error(err))
		}

		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %s", redact.Error(err))
		}

		logger.Info("database connection established", slog.String("driver", "postgres"))
		return &database{driver: "postgres", sql: db, migrations: postgres.Migrations()}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func closeDatabase(db *database, logger *slog.Logger) {
	if err := db.sql.Close(); err != nil {
		logger.Error("error closing database connection", slog.String("error", redact.Error(err)))
	}
}

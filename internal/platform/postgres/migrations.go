package postgres

import (
	"embed"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/tasklytics/tasklytics-api/internal/platform/migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded PostgreSQL schema migrations.
func Migrations() migrate.Source {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at compile time
		panic(err)
	}
	return migrate.Source{Dialect: goose.DialectPostgres, FS: sub}
}

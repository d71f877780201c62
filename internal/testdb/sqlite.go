package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/platform/migrate"
	"github.com/tasklytics/tasklytics-api/internal/platform/sqlite"
)

// NewSQLite returns a migrated SQLite database in the test's temp directory.
// It is closed when the test finishes.
func NewSQLite(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "tasklytics.db"))
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })

	err = migrate.Up(ctx, db.DB, sqlite.Migrations(), logger.NewDiscardLogger())
	require.NoError(t, err, "Failed to run sqlite migrations")

	return db
}

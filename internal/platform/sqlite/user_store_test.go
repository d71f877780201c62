package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/platform/sqlite"
	"github.com/tasklytics/tasklytics-api/internal/store"
	"github.com/tasklytics/tasklytics-api/internal/testdb"
)

func TestUserStore(t *testing.T) {
	db := testdb.NewSQLite(t)
	s := sqlite.NewSQLiteUserStore(db, logger.NewDiscardLogger())
	ctx := context.Background()

	user := &domain.User{
		Email:          "Ada@Example.com",
		HashedPassword: "$2a$10$hash",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Age:            36,
		IsActive:       true,
	}
	require.NoError(t, s.Create(ctx, user))
	assert.NotZero(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)

	got, err := s.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.True(t, got.IsActive)

	dup := *user
	dup.ID = 0
	assert.ErrorIs(t, s.Create(ctx, &dup), store.ErrEmailExists)

	require.NoError(t, s.UpdatePassword(ctx, user.ID, "$2a$10$other"))
	got, err = s.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$other", got.HashedPassword)

	assert.ErrorIs(t, s.UpdatePassword(ctx, 9999, "$2a$10$x"), store.ErrUserNotFound)

	_, err = s.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestMapError(t *testing.T) {
	db := testdb.NewSQLite(t)

	_, err := db.Exec(`INSERT INTO notifications (task_id, message, created_at) VALUES (777, 'x', '2026-01-01 00:00:00+00:00')`)
	require.Error(t, err)
	assert.True(t, sqlite.IsForeignKeyViolation(err))
	assert.ErrorIs(t, sqlite.MapError(err), store.ErrInvalidEntity)

	assert.NoError(t, sqlite.MapError(nil))
}

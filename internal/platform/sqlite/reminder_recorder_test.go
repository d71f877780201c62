package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/platform/sqlite"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

func TestRecordReminder(t *testing.T) {
	db, tasks := newTaskStore(t)
	ctx := context.Background()
	recorder := sqlite.NewSQLiteReminderRecorder(db, logger.NewDiscardLogger())
	notifications := sqlite.NewSQLiteNotificationStore(db, logger.NewDiscardLogger())

	task := createTask(t, tasks, "pay rent", time.Now().Add(3*time.Minute))

	n, err := recorder.RecordReminder(ctx, task.ID, "Task 'pay rent' due soon.")
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.Equal(t, task.ID, n.TaskID)

	stored, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Reminded)

	history, err := notifications.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, n.ID, history[0].ID)

	t.Run("second record is rejected", func(t *testing.T) {
		_, err := recorder.RecordReminder(ctx, task.ID, "again")
		assert.ErrorIs(t, err, store.ErrAlreadyReminded)

		history, err := notifications.ListByTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("deleted task", func(t *testing.T) {
		gone := createTask(t, tasks, "gone", time.Now())
		require.NoError(t, tasks.Delete(ctx, gone.ID))

		_, err := recorder.RecordReminder(ctx, gone.ID, "too late")
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("empty message", func(t *testing.T) {
		_, err := recorder.RecordReminder(ctx, task.ID, "")
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})
}

func TestRecordReminder_FailedInsertLeavesFlagUnset(t *testing.T) {
	db, tasks := newTaskStore(t)
	ctx := context.Background()
	recorder := sqlite.NewSQLiteReminderRecorder(db, logger.NewDiscardLogger())

	task := createTask(t, tasks, "atomic", time.Now())

	_, err := db.Exec(`
		CREATE TRIGGER reject_notifications BEFORE INSERT ON notifications
		BEGIN
			SELECT RAISE(ABORT, 'notification log unavailable');
		END`)
	require.NoError(t, err)

	_, err = recorder.RecordReminder(ctx, task.ID, "never stored")
	require.Error(t, err)

	stored, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Reminded, "flag update must roll back with the insert")

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM notifications`))
	assert.Zero(t, count)
}

func TestNotificationStore(t *testing.T) {
	db, tasks := newTaskStore(t)
	ctx := context.Background()
	s := sqlite.NewSQLiteNotificationStore(db, logger.NewDiscardLogger())

	mine := createTask(t, tasks, "mine", time.Now())
	theirs, err := domain.NewTask("theirs", nil, time.Now(), "other@example.com")
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, theirs))

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	older := &domain.Notification{TaskID: mine.ID, Message: "older", CreatedAt: base}
	newer := &domain.Notification{TaskID: mine.ID, Message: "newer", CreatedAt: base.Add(time.Minute)}
	foreign := &domain.Notification{TaskID: theirs.ID, Message: "foreign", CreatedAt: base}
	for _, n := range []*domain.Notification{older, newer, foreign} {
		require.NoError(t, s.Create(ctx, n))
	}

	list, err := s.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Message)
	assert.Equal(t, "older", list[1].Message)
	assert.True(t, list[0].CreatedAt.Equal(base.Add(time.Minute)))

	err = s.Create(ctx, &domain.Notification{TaskID: 9999, Message: "orphan"})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

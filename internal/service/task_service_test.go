package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/platform/sqlite"
	"github.com/tasklytics/tasklytics-api/internal/service"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

const (
	owner    = "owner@example.com"
	stranger = "stranger@example.com"
)

func createTask(t *testing.T, f *fixture, title string, dueIn time.Duration) *domain.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), owner, service.CreateTaskParams{
		Title: title,
		DueAt: time.Now().Add(dueIn),
	})
	require.NoError(t, err)
	return task
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.tasks.CreateTask(ctx, owner, service.CreateTaskParams{
		Title:       "  pay rent  ",
		Description: strPtr("   "),
		DueAt:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NotZero(t, task.ID)
	assert.Equal(t, "pay rent", task.Title)
	assert.Nil(t, task.Description, "blank description is stored as null")
	assert.False(t, task.Reminded)

	_, err = f.tasks.CreateTask(ctx, owner, service.CreateTaskParams{Title: "", DueAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.tasks.CreateTask(ctx, owner, service.CreateTaskParams{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetTask_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := createTask(t, f, "mine", time.Hour)

	got, err := f.tasks.GetTask(ctx, "OWNER@example.com", task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = f.tasks.GetTask(ctx, stranger, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	_, err = f.tasks.GetTask(ctx, owner, 9999)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestListTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	later := createTask(t, f, "later", 2*time.Hour)
	sooner := createTask(t, f, "sooner", time.Hour)
	_, err := f.tasks.CreateTask(ctx, stranger, service.CreateTaskParams{Title: "theirs", DueAt: time.Now()})
	require.NoError(t, err)

	tasks, err := f.tasks.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, sooner.ID, tasks[0].ID)
	assert.Equal(t, later.ID, tasks[1].ID)
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recorder := sqlite.NewSQLiteReminderRecorder(f.db, logger.NewDiscardLogger())

	t.Run("empty update", func(t *testing.T) {
		task := createTask(t, f, "a", time.Hour)
		_, err := f.tasks.UpdateTask(ctx, owner, task.ID, domain.TaskUpdate{})
		assert.ErrorIs(t, err, service.ErrNothingToUpdate)
	})

	t.Run("title only keeps reminded flag", func(t *testing.T) {
		task := createTask(t, f, "a", 2*time.Minute)
		_, err := recorder.RecordReminder(ctx, task.ID, "reminder")
		require.NoError(t, err)

		updated, err := f.tasks.UpdateTask(ctx, owner, task.ID, domain.TaskUpdate{Title: strPtr("renamed")})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.True(t, updated.Reminded)
	})

	t.Run("new future due time re-arms", func(t *testing.T) {
		task := createTask(t, f, "a", 2*time.Minute)
		_, err := recorder.RecordReminder(ctx, task.ID, "reminder")
		require.NoError(t, err)

		due := time.Now().Add(24 * time.Hour)
		updated, err := f.tasks.UpdateTask(ctx, owner, task.ID, domain.TaskUpdate{DueAt: &due})
		require.NoError(t, err)
		assert.False(t, updated.Reminded)

		stored, err := f.tasks.GetTask(ctx, owner, task.ID)
		require.NoError(t, err)
		assert.False(t, stored.Reminded)
	})

	t.Run("past due time does not re-arm", func(t *testing.T) {
		task := createTask(t, f, "a", 2*time.Minute)
		_, err := recorder.RecordReminder(ctx, task.ID, "reminder")
		require.NoError(t, err)

		due := time.Now().Add(-time.Hour)
		updated, err := f.tasks.UpdateTask(ctx, owner, task.ID, domain.TaskUpdate{DueAt: &due})
		require.NoError(t, err)
		assert.True(t, updated.Reminded)
	})

	t.Run("clears description", func(t *testing.T) {
		task, err := f.tasks.CreateTask(ctx, owner, service.CreateTaskParams{
			Title: "a", Description: strPtr("details"), DueAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		updated, err := f.tasks.UpdateTask(ctx, owner, task.ID, domain.TaskUpdate{Description: strPtr(" ")})
		require.NoError(t, err)
		assert.Nil(t, updated.Description)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		task := createTask(t, f, "a", time.Hour)
		_, err := f.tasks.UpdateTask(ctx, owner, task.ID, domain.TaskUpdate{Title: strPtr("  ")})
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})

	t.Run("other owner", func(t *testing.T) {
		task := createTask(t, f, "a", time.Hour)
		_, err := f.tasks.UpdateTask(ctx, stranger, task.ID, domain.TaskUpdate{Title: strPtr("mine now")})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := createTask(t, f, "a", time.Hour)

	_, err := f.tasks.CreateNotification(ctx, owner, task.ID, "manual note")
	require.NoError(t, err)

	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, stranger, task.ID), store.ErrTaskNotFound)
	require.NoError(t, f.tasks.DeleteTask(ctx, owner, task.ID))
	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, owner, task.ID), store.ErrTaskNotFound)

	all, err := f.tasks.ListNotifications(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, all, "notifications cascade with the task")
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := createTask(t, f, "first", time.Hour)
	second := createTask(t, f, "second", time.Hour)

	n1, err := f.tasks.CreateNotification(ctx, owner, first.ID, "one")
	require.NoError(t, err)
	n2, err := f.tasks.CreateNotification(ctx, owner, second.ID, "two")
	require.NoError(t, err)

	_, err = f.tasks.CreateNotification(ctx, owner, first.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	_, err = f.tasks.CreateNotification(ctx, stranger, first.ID, "sneaky")
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	forTask, err := f.tasks.ListTaskNotifications(ctx, owner, first.ID)
	require.NoError(t, err)
	require.Len(t, forTask, 1)
	assert.Equal(t, n1.ID, forTask[0].ID)

	_, err = f.tasks.ListTaskNotifications(ctx, stranger, first.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	all, err := f.tasks.ListNotifications(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, n2.ID, all[0].ID, "newest first")

	theirs, err := f.tasks.ListNotifications(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

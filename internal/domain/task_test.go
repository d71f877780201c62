package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewTask(t *testing.T) {
	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))

	task, err := NewTask("  Pay rent ", ptr("pay rent"), due, "owner@example.com")
	require.NoError(t, err)

	assert.Equal(t, "Pay rent", task.Title)
	assert.Equal(t, time.UTC, task.DueAt.Location(), "due time is normalized to UTC")
	assert.True(t, task.DueAt.Equal(due))
	assert.False(t, task.Reminded)
}

func TestTaskValidate(t *testing.T) {
	due := time.Now().Add(time.Hour)

	_, err := NewTask("   ", nil, due, "owner@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrEmptyContent)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "title", vErr.Field)

	_, err = NewTask("Title", nil, time.Time{}, "owner@example.com")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTask("Title", nil, due, "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestTaskDescriptionOr(t *testing.T) {
	task := Task{}
	assert.Equal(t, "No details", task.DescriptionOr("No details"))

	task.Description = ptr("  ")
	assert.Equal(t, "No details", task.DescriptionOr("No details"))

	task.Description = ptr("pay rent")
	assert.Equal(t, "pay rent", task.DescriptionOr("No details"))
}

func TestTaskUpdateApply(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	base := Task{
		ID:         7,
		Title:      "Dentist",
		DueAt:      now.Add(-time.Hour),
		OwnerEmail: "owner@example.com",
		Reminded:   true,
	}

	t.Run("title only keeps reminded", func(t *testing.T) {
		got, err := TaskUpdate{Title: ptr("Dentist appointment")}.Apply(base, now)
		require.NoError(t, err)
		assert.Equal(t, "Dentist appointment", got.Title)
		assert.True(t, got.Reminded)
		assert.Equal(t, now, got.UpdatedAt)
	})

	t.Run("new future due re-arms", func(t *testing.T) {
		got, err := TaskUpdate{DueAt: ptr(now.Add(24 * time.Hour))}.Apply(base, now)
		require.NoError(t, err)
		assert.False(t, got.Reminded)
	})

	t.Run("past due does not re-arm", func(t *testing.T) {
		got, err := TaskUpdate{DueAt: ptr(now.Add(-2 * time.Hour))}.Apply(base, now)
		require.NoError(t, err)
		assert.True(t, got.Reminded)
	})

	t.Run("same due does not re-arm", func(t *testing.T) {
		future := base
		future.DueAt = now.Add(time.Hour)
		got, err := TaskUpdate{DueAt: ptr(future.DueAt)}.Apply(future, now)
		require.NoError(t, err)
		assert.True(t, got.Reminded)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		_, err := TaskUpdate{Title: ptr(" ")}.Apply(base, now)
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	assert.True(t, TaskUpdate{}.IsEmpty())
}

func TestNewNotification(t *testing.T) {
	n, err := NewNotification(3, " Task 'x' due ")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n.TaskID)
	assert.Equal(t, "Task 'x' due", n.Message)

	_, err = NewNotification(0, "msg")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = NewNotification(1, "")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

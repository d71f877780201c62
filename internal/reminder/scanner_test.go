package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/mocks"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/reminder"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

func TestScanner_PassesCutoffAndLimit(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var gotCutoff time.Time
	var gotLimit int
	finder := &mocks.MockDueTaskFinder{
		FindDueUnremindedFn: func(ctx context.Context, cutoff time.Time, after store.DueCursor, limit int) ([]domain.Task, error) {
			assert.True(t, after.IsZero())
			gotCutoff, gotLimit = cutoff, limit
			return []domain.Task{{ID: 1}}, nil
		},
	}

	tasks, err := reminder.NewScanner(finder, 25, logger.NewDiscardLogger()).Scan(context.Background(), now)

	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, now.Add(5*time.Minute), gotCutoff)
	assert.Equal(t, 25, gotLimit)
}

func TestScanner_WrapsStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	finder := &mocks.MockDueTaskFinder{Err: storeErr}

	_, err := reminder.NewScanner(finder, 0, nil).Scan(context.Background(), time.Now())

	assert.ErrorIs(t, err, storeErr)
}

func TestScanner_Window(t *testing.T) {
	h := newHarness(t)
	scanner := reminder.NewScanner(h.tasks, 0, logger.NewDiscardLogger())

	soon := h.createTask(t, "soon", nil, 4*time.Minute)
	h.createTask(t, "later", nil, 10*time.Minute)
	overdue := h.createTask(t, "overdue", nil, -time.Minute)
	edge := h.createTask(t, "edge", nil, reminder.LeadWindow)
	h.createTask(t, "just outside", nil, reminder.LeadWindow+time.Second)

	tasks, err := scanner.Scan(context.Background(), h.clock.Now())
	require.NoError(t, err)

	ids := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int64{overdue.ID, soon.ID, edge.ID}, ids, "due_at ascending, no lower bound")
}

func TestScanner_BatchSize(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		h.createTask(t, "task", nil, time.Duration(i)*time.Second)
	}

	tasks, err := reminder.NewScanner(h.tasks, 2, logger.NewDiscardLogger()).Scan(context.Background(), h.clock.Now())

	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestScanner_ResumesAfterFullBatch(t *testing.T) {
	h := newHarness(t)
	var created []*domain.Task
	for i := 0; i < 3; i++ {
		created = append(created, h.createTask(t, "task", nil, time.Duration(i)*time.Second))
	}
	scanner := reminder.NewScanner(h.tasks, 2, logger.NewDiscardLogger())
	ctx := context.Background()

	first, err := scanner.Scan(ctx, h.clock.Now())
	require.NoError(t, err)
	require.Len(t, first, 2)

	next := scanner.Next(first)
	assert.Equal(t, created[1].ID, next.ID)

	rest, err := scanner.ScanAfter(ctx, h.clock.Now(), next)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, created[2].ID, rest[0].ID)
	assert.True(t, scanner.Next(rest).IsZero(), "partial batch wraps to the start")
}

func TestScanner_NextWithoutLimit(t *testing.T) {
	scanner := reminder.NewScanner(&mocks.MockDueTaskFinder{}, 0, nil)
	assert.True(t, scanner.Next([]domain.Task{{ID: 1}, {ID: 2}}).IsZero())
}

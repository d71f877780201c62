package mocks

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// MockDueTaskFinder implements reminder.DueTaskFinder for testing.
type MockDueTaskFinder struct {
	FindDueUnremindedFn func(ctx context.Context, cutoff time.Time, after store.DueCursor, limit int) ([]domain.Task, error)

	// Tasks is returned when no function is set.
	Tasks []domain.Task
	Err   error

	calls atomic.Int64
}

// FindDueUnreminded implements reminder.DueTaskFinder
func (m *MockDueTaskFinder) FindDueUnreminded(
	ctx context.Context,
	cutoff time.Time,
	after store.DueCursor,
	limit int,
) ([]domain.Task, error) {
	m.calls.Add(1)
	if m.FindDueUnremindedFn != nil {
		return m.FindDueUnremindedFn(ctx, cutoff, after, limit)
	}
	return m.Tasks, m.Err
}

// Calls returns how many times FindDueUnreminded was called.
func (m *MockDueTaskFinder) Calls() int {
	return int(m.calls.Load())
}

package mocks

import (
	"context"
	"sync"

	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// MockReminderRecorder implements store.ReminderRecorder for testing.
// Without RecordReminderFn it delegates to Next, if set.
type MockReminderRecorder struct {
	RecordReminderFn func(ctx context.Context, taskID int64, message string) (*domain.Notification, error)
	Next             store.ReminderRecorder

	mu      sync.Mutex
	taskIDs []int64
}

// RecordReminder implements store.ReminderRecorder
func (m *MockReminderRecorder) RecordReminder(
	ctx context.Context,
	taskID int64,
	message string,
) (*domain.Notification, error) {
	m.mu.Lock()
	m.taskIDs = append(m.taskIDs, taskID)
	m.mu.Unlock()

	if m.RecordReminderFn != nil {
		return m.RecordReminderFn(ctx, taskID, message)
	}
	if m.Next != nil {
		return m.Next.RecordReminder(ctx, taskID, message)
	}
	return &domain.Notification{ID: taskID, TaskID: taskID, Message: message}, nil
}

// TaskIDs returns the task IDs passed to RecordReminder, in call order.
func (m *MockReminderRecorder) TaskIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.taskIDs...)
}

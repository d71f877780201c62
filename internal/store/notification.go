package store

import (
	"context"
	"database/sql"

	"github.com/tasklytics/tasklytics-api/internal/domain"
)

// NotificationStore defines the interface for the notification log.
// Notifications are append-only; they are removed only by task deletion.
type NotificationStore interface {
	// Create inserts the notification and assigns its ID.
	// Returns ErrTaskNotFound if the referenced task does not exist.
	Create(ctx context.Context, n *domain.Notification) error

	// ListByTask returns a task's notifications, newest first.
	ListByTask(ctx context.Context, taskID int64) ([]domain.Notification, error)

	// ListByOwner returns notifications for every task owned by ownerEmail, newest first.
	ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Notification, error)

	// WithTx returns a NotificationStore that runs its queries on tx.
	WithTx(tx *sql.Tx) NotificationStore
}

// ReminderRecorder persists the outcome of a reminder dispatch.
type ReminderRecorder interface {
	// RecordReminder inserts a notification for taskID and sets the task's
	// reminded flag in one transaction. Either both changes commit or neither does.
	// Returns ErrTaskNotFound if the task is gone and ErrAlreadyReminded if the
	// flag was already set.
	RecordReminder(ctx context.Context, taskID int64, message string) (*domain.Notification, error)
}

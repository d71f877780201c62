package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/tasklytics/tasklytics-api/internal/domain"
)

// DueCursor is a position in (due_at, id) order. The zero value is the start.
type DueCursor struct {
	DueAt time.Time
	ID    int64
}

// IsZero reports whether the cursor is at the start.
func (c DueCursor) IsZero() bool {
	return c.ID == 0
}

// CursorAfter returns the cursor positioned on task.
func CursorAfter(task domain.Task) DueCursor {
	return DueCursor{DueAt: task.DueAt.UTC(), ID: task.ID}
}

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create inserts the task and assigns its ID.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// ListByOwner returns the owner's tasks ordered by due time, then ID.
	ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Task, error)

	// Update persists title, description and due time. The reminded flag is
	// reset in the same statement when the due time moves to a different
	// instant after task.UpdatedAt; task.Reminded is refreshed from the row.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the task; its notifications are removed by cascade.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id int64) error

	// FindDueUnreminded returns tasks with reminded = false and due_at <= cutoff,
	// ordered by due_at then id, starting strictly after the after cursor.
	// There is no lower bound on due_at. A limit of zero or less returns every match.
	FindDueUnreminded(ctx context.Context, cutoff time.Time, after DueCursor, limit int) ([]domain.Task, error)

	// WithTx returns a TaskStore that runs its queries on tx.
	WithTx(tx *sql.Tx) TaskStore
}

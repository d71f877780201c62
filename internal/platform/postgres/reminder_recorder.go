package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// PostgresReminderRecorder implements store.ReminderRecorder. It needs the
// pool itself rather than a DBTX because it owns the transaction.
type PostgresReminderRecorder struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresReminderRecorder creates a recorder bound to db.
func NewPostgresReminderRecorder(db *sql.DB, logger *slog.Logger) *PostgresReminderRecorder {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReminderRecorder{
		db:     db,
		logger: logger.With(slog.String("component", "reminder_recorder")),
	}
}

var _ store.ReminderRecorder = (*PostgresReminderRecorder)(nil)

// RecordReminder implements store.ReminderRecorder.RecordReminder
// The guarded UPDATE takes the row lock first, so a concurrent dispatch or
// delete of the same task serializes behind it.
func (r *PostgresReminderRecorder) RecordReminder(
	ctx context.Context,
	taskID int64,
	message string,
) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, r.logger).With(slog.Int64("task_id", taskID))

	n, err := domain.NewNotification(taskID, message)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE tasks SET reminded = TRUE WHERE id = $1 AND reminded = FALSE`, taskID)
		if err != nil {
			return MapError(err)
		}
		if err := rowsAffected(result, store.ErrTaskNotFound); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, taskID).Scan(&exists); err != nil {
				return MapError(err)
			}
			if exists {
				return store.ErrAlreadyReminded
			}
			return store.ErrTaskNotFound
		}

		return NewPostgresNotificationStore(tx, r.logger).Create(ctx, n)
	})
	if err != nil {
		if !errors.Is(err, store.ErrAlreadyReminded) && !errors.Is(err, store.ErrTaskNotFound) {
			log.Error("failed to record reminder", slog.String("error", err.Error()))
		}
		return nil, err
	}

	log.Debug("reminder recorded", slog.Int64("notification_id", n.ID))
	return n, nil
}

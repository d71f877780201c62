package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// SQLiteReminderRecorder implements store.ReminderRecorder on SQLite.
type SQLiteReminderRecorder struct {
	db            *sqlx.DB
	notifications *SQLiteNotificationStore
	logger        *slog.Logger
}

// NewSQLiteReminderRecorder creates a recorder bound to db.
func NewSQLiteReminderRecorder(db *sqlx.DB, logger *slog.Logger) *SQLiteReminderRecorder {
	notifications := NewSQLiteNotificationStore(db, logger)
	return &SQLiteReminderRecorder{
		db:            db,
		notifications: notifications,
		logger:        notifications.logger.With(slog.String("component", "reminder_recorder")),
	}
}

var _ store.ReminderRecorder = (*SQLiteReminderRecorder)(nil)

// RecordReminder implements store.ReminderRecorder.RecordReminder
func (r *SQLiteReminderRecorder) RecordReminder(
	ctx context.Context,
	taskID int64,
	message string,
) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, r.logger).With(slog.Int64("task_id", taskID))

	n, err := domain.NewNotification(taskID, message)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, r.db.DB, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE tasks SET reminded = 1 WHERE id = ? AND reminded = 0`, taskID)
		if err != nil {
			return MapError(err)
		}
		if err := rowsAffected(result, store.ErrNotFound); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = ?)`, taskID).Scan(&exists); err != nil {
				return MapError(err)
			}
			if exists {
				return store.ErrAlreadyReminded
			}
			return store.ErrTaskNotFound
		}

		return r.notifications.WithTx(tx).Create(ctx, n)
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

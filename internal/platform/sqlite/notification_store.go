package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

type notificationRow struct {
	ID        int64     `db:"id"`
	TaskID    int64     `db:"task_id"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

// SQLiteNotificationStore implements store.NotificationStore on SQLite.
type SQLiteNotificationStore struct {
	handle
}

// NewSQLiteNotificationStore creates a notification store on db.
func NewSQLiteNotificationStore(db *sqlx.DB, logger *slog.Logger) *SQLiteNotificationStore {
	return &SQLiteNotificationStore{handle: newHandle(db, logger, "notification_store")}
}

var _ store.NotificationStore = (*SQLiteNotificationStore)(nil)

// WithTx implements store.NotificationStore.WithTx
func (s *SQLiteNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &SQLiteNotificationStore{handle: s.withTx(tx)}
}

// Create implements store.NotificationStore.Create
func (s *SQLiteNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (task_id, message, created_at) VALUES (?, ?, ?)`,
		n.TaskID, n.Message, n.CreatedAt.UTC(),
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrTaskNotFound
		}
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.Int64("task_id", n.TaskID))
		return MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return MapError(err)
	}
	n.ID = id

	log.Debug("notification created", slog.Int64("notification_id", n.ID), slog.Int64("task_id", n.TaskID))
	return nil
}

// ListByTask implements store.NotificationStore.ListByTask
func (s *SQLiteNotificationStore) ListByTask(ctx context.Context, taskID int64) ([]domain.Notification, error) {
	return s.selectNotifications(ctx, `
		SELECT id, task_id, message, created_at
		FROM notifications
		WHERE task_id = ?
		ORDER BY created_at DESC, id DESC`, taskID)
}

// ListByOwner implements store.NotificationStore.ListByOwner
func (s *SQLiteNotificationStore) ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Notification, error) {
	return s.selectNotifications(ctx, `
		SELECT n.id, n.task_id, n.message, n.created_at
		FROM notifications n
		JOIN tasks t ON t.id = n.task_id
		WHERE t.owner_email = ?
		ORDER BY n.created_at DESC, n.id DESC`, ownerEmail)
}

func (s *SQLiteNotificationStore) selectNotifications(
	ctx context.Context,
	query string,
	args ...any,
) ([]domain.Notification, error) {
	var rows []notificationRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("notification query failed",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Notification{
			ID:        r.ID,
			TaskID:    r.TaskID,
			Message:   r.Message,
			CreatedAt: r.CreatedAt.UTC(),
		})
	}
	return out, nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// PostgresNotificationStore implements store.NotificationStore using PostgreSQL.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL notification store.
// If logger is nil, a default logger will be used.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{db: tx, logger: s.logger}
}

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO notifications (task_id, message, created_at) VALUES ($1, $2, $3) RETURNING id`,
		n.TaskID, n.Message, n.CreatedAt.UTC(),
	).Scan(&n.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Debug("notification references missing task", slog.Int64("task_id", n.TaskID))
			return store.ErrTaskNotFound
		}
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.Int64("task_id", n.TaskID))
		return MapError(err)
	}

	log.Debug("notification created",
		slog.Int64("notification_id", n.ID),
		slog.Int64("task_id", n.TaskID))
	return nil
}

// ListByTask implements store.NotificationStore.ListByTask
func (s *PostgresNotificationStore) ListByTask(ctx context.Context, taskID int64) ([]domain.Notification, error) {
	return s.query(ctx, `
		SELECT id, task_id, message, created_at
		FROM notifications
		WHERE task_id = $1
		ORDER BY created_at DESC, id DESC
	`, taskID)
}

// ListByOwner implements store.NotificationStore.ListByOwner
func (s *PostgresNotificationStore) ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Notification, error) {
	return s.query(ctx, `
		SELECT n.id, n.task_id, n.message, n.created_at
		FROM notifications n
		JOIN tasks t ON t.id = n.task_id
		WHERE t.owner_email = $1
		ORDER BY n.created_at DESC, n.id DESC
	`, ownerEmail)
}

func (s *PostgresNotificationStore) query(ctx context.Context, query string, args ...any) ([]domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("notification query failed", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.TaskID, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.CreatedAt = n.CreatedAt.UTC()
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

type taskRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	DueAt       time.Time      `db:"due_at"`
	OwnerEmail  string         `db:"owner_email"`
	Reminded    bool           `db:"reminded"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r taskRow) toDomain() domain.Task {
	t := domain.Task{
		ID:         r.ID,
		Title:      r.Title,
		DueAt:      r.DueAt.UTC(),
		OwnerEmail: r.OwnerEmail,
		Reminded:   r.Reminded,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	if r.Description.Valid {
		desc := r.Description.String
		t.Description = &desc
	}
	return t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

const taskColumns = `id, title, description, due_at, owner_email, reminded, created_at, updated_at`

// SQLiteTaskStore implements store.TaskStore on SQLite.
type SQLiteTaskStore struct {
	handle
}

// NewSQLiteTaskStore creates a task store on db. If logger is nil, a default logger is used.
func NewSQLiteTaskStore(db *sqlx.DB, logger *slog.Logger) *SQLiteTaskStore {
	return &SQLiteTaskStore{handle: newHandle(db, logger, "task_store")}
}

var _ store.TaskStore = (*SQLiteTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *SQLiteTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &SQLiteTaskStore{handle: s.withTx(tx)}
}

// Create implements store.TaskStore.Create
func (s *SQLiteTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = now
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (title, description, due_at, owner_email, reminded, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.Title,
		nullString(task.Description),
		task.DueAt.UTC(),
		task.OwnerEmail,
		task.Reminded,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return MapError(err)
	}
	task.ID = id

	log.Info("task created", slog.Int64("task_id", task.ID), slog.Time("due_at", task.DueAt))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *SQLiteTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	var row taskRow
	err := sqlx.GetContext(ctx, s.db, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.String("error", err.Error()), slog.Int64("task_id", id))
		return nil, MapError(err)
	}
	task := row.toDomain()
	return &task, nil
}

// ListByOwner implements store.TaskStore.ListByOwner
func (s *SQLiteTaskStore) ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Task, error) {
	return s.selectTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_email = ? ORDER BY due_at ASC, id ASC`,
		ownerEmail)
}

// FindDueUnreminded implements store.TaskStore.FindDueUnreminded
func (s *SQLiteTaskStore) FindDueUnreminded(
	ctx context.Context,
	cutoff time.Time,
	after store.DueCursor,
	limit int,
) ([]domain.Task, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT means no limit
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE reminded = 0 AND due_at <= ?`
	args := []any{cutoff.UTC()}
	if !after.IsZero() {
		query += ` AND (due_at > ? OR (due_at = ? AND id > ?))`
		args = append(args, after.DueAt.UTC(), after.DueAt.UTC(), after.ID)
	}
	query += ` ORDER BY due_at ASC, id ASC LIMIT ?`
	args = append(args, limit)
	return s.selectTasks(ctx, query, args...)
}

func (s *SQLiteTaskStore) selectTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	var rows []taskRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("task query failed", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	tasks := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toDomain())
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update
func (s *SQLiteTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = time.Now().UTC()
	}

	due := task.DueAt.UTC()
	at := task.UpdatedAt.UTC()
	var reminded bool
	err := sqlx.GetContext(ctx, s.db, &reminded, `
		UPDATE tasks
		SET title = ?,
		    description = ?,
		    reminded = CASE WHEN due_at <> ? AND ? > ? THEN 0 ELSE reminded END,
		    due_at = ?,
		    updated_at = ?
		WHERE id = ?
		RETURNING reminded`,
		task.Title, nullString(task.Description), due, due, at, due, at, task.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrTaskNotFound
		}
		log.Error("failed to update task", slog.String("error", err.Error()), slog.Int64("task_id", task.ID))
		return MapError(err)
	}
	task.Reminded = reminded

	log.Info("task updated", slog.Int64("task_id", task.ID), slog.Bool("reminded", task.Reminded))
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *SQLiteTaskStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete task", slog.String("error", err.Error()), slog.Int64("task_id", id))
		return MapError(err)
	}
	if err := rowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted", slog.Int64("task_id", id))
	return nil
}

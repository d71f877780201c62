package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// CreateTaskParams holds the fields of a new task.
type CreateTaskParams struct {
	Title       string
	Description *string
	DueAt       time.Time
}

// TaskService provides task and notification operations scoped to an owner.
// A task owned by someone else is reported as store.ErrTaskNotFound.
type TaskService interface {
	CreateTask(ctx context.Context, ownerEmail string, params CreateTaskParams) (*domain.Task, error)
	GetTask(ctx context.Context, ownerEmail string, id int64) (*domain.Task, error)
	ListTasks(ctx context.Context, ownerEmail string) ([]domain.Task, error)

	// UpdateTask applies a partial update. Moving the due time to a new
	// future instant re-arms the reminder.
	UpdateTask(ctx context.Context, ownerEmail string, id int64, update domain.TaskUpdate) (*domain.Task, error)

	// DeleteTask removes the task and, by cascade, its notifications.
	DeleteTask(ctx context.Context, ownerEmail string, id int64) error

	ListTaskNotifications(ctx context.Context, ownerEmail string, taskID int64) ([]domain.Notification, error)
	ListNotifications(ctx context.Context, ownerEmail string) ([]domain.Notification, error)

	// CreateNotification records a manual notification on an owned task.
	CreateNotification(ctx context.Context, ownerEmail string, taskID int64, message string) (*domain.Notification, error)
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	tasks         store.TaskStore
	notifications store.NotificationStore
	db            *sql.DB
	now           func() time.Time
	logger        *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	tasks store.TaskStore,
	notifications store.NotificationStore,
	db *sql.DB,
	logger *slog.Logger,
) *TaskServiceImpl {
	return &TaskServiceImpl{
		tasks:         tasks,
		notifications: notifications,
		db:            db,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger.With(slog.String("component", "task_service")),
	}
}

var _ TaskService = (*TaskServiceImpl)(nil)

// CreateTask implements TaskService.CreateTask
func (s *TaskServiceImpl) CreateTask(
	ctx context.Context,
	ownerEmail string,
	params CreateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(params.Title, normalizeDescription(params.Description), params.DueAt, ownerEmail)
	if err != nil {
		log.Debug("invalid task", slog.String("error", err.Error()))
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.Int64("task_id", task.ID),
		slog.Time("due_at", task.DueAt))
	return task, nil
}

// GetTask implements TaskService.GetTask
func (s *TaskServiceImpl) GetTask(ctx context.Context, ownerEmail string, id int64) (*domain.Task, error) {
	return s.ownedTask(ctx, s.tasks, ownerEmail, id)
}

// ListTasks implements TaskService.ListTasks
func (s *TaskServiceImpl) ListTasks(ctx context.Context, ownerEmail string) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *TaskServiceImpl) UpdateTask(
	ctx context.Context,
	ownerEmail string,
	id int64,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	if update.IsEmpty() {
		return nil, ErrNothingToUpdate
	}
	if update.Description != nil {
		trimmed := strings.TrimSpace(*update.Description)
		update.Description = &trimmed
	}

	var updated domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		current, err := s.ownedTask(ctx, txTasks, ownerEmail, id)
		if err != nil {
			return err
		}

		updated, err = update.Apply(*current, s.now())
		if err != nil {
			return fmt.Errorf("invalid task update: %w", err)
		}
		// an empty description clears it
		updated.Description = normalizeDescription(updated.Description)

		return txTasks.Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task updated",
		slog.Int64("task_id", id),
		slog.Bool("reminded", updated.Reminded))
	return &updated, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, ownerEmail string, id int64) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		if _, err := s.ownedTask(ctx, txTasks, ownerEmail, id); err != nil {
			return err
		}
		return txTasks.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted", slog.Int64("task_id", id))
	return nil
}

// ListTaskNotifications implements TaskService.ListTaskNotifications
func (s *TaskServiceImpl) ListTaskNotifications(
	ctx context.Context,
	ownerEmail string,
	taskID int64,
) ([]domain.Notification, error) {
	if _, err := s.ownedTask(ctx, s.tasks, ownerEmail, taskID); err != nil {
		return nil, err
	}
	notifications, err := s.notifications.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// ListNotifications implements TaskService.ListNotifications
func (s *TaskServiceImpl) ListNotifications(ctx context.Context, ownerEmail string) ([]domain.Notification, error) {
	notifications, err := s.notifications.ListByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// CreateNotification implements TaskService.CreateNotification
func (s *TaskServiceImpl) CreateNotification(
	ctx context.Context,
	ownerEmail string,
	taskID int64,
	message string,
) (*domain.Notification, error) {
	n, err := domain.NewNotification(taskID, message)
	if err != nil {
		return nil, fmt.Errorf("invalid notification: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.ownedTask(ctx, s.tasks.WithTx(tx), ownerEmail, taskID); err != nil {
			return err
		}
		return s.notifications.WithTx(tx).Create(ctx, n)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("manual notification created",
		slog.Int64("task_id", taskID),
		slog.Int64("notification_id", n.ID))
	return n, nil
}

// ownedTask loads a task and hides it from anyone but its owner.
func (s *TaskServiceImpl) ownedTask(
	ctx context.Context,
	tasks store.TaskStore,
	ownerEmail string,
	id int64,
) (*domain.Task, error) {
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load task",
				slog.Int64("task_id", id),
				slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !strings.EqualFold(task.OwnerEmail, ownerEmail) {
		logger.FromContextOrDefault(ctx, s.logger).Debug("task owned by another user",
			slog.Int64("task_id", id))
		return nil, fmt.Errorf("failed to get task: %w", store.ErrTaskNotFound)
	}
	return task, nil
}

func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tasklytics/tasklytics-api/internal/delivery"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// Status is the outcome of dispatching one task.
type Status string

// Dispatch outcomes.
const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ErrInvalidRecipient is reported for tasks whose owner address is not a valid e-mail.
var ErrInvalidRecipient = errors.New("invalid reminder recipient")

// Enqueuer accepts delivery jobs without blocking. *delivery.Pool satisfies it.
type Enqueuer interface {
	Enqueue(job delivery.Job) error
}

// DispatchResult describes what happened to one task.
type DispatchResult struct {
	TaskID int64
	Status Status
	// Reason explains a Skipped or Failed result.
	Reason         string
	NotificationID int64
}

// BatchResult aggregates the results of DispatchAll.
type BatchResult struct {
	Results []DispatchResult
	Sent    int
	Skipped int
	Failed  int
}

func (b *BatchResult) add(r DispatchResult) {
	b.Results = append(b.Results, r)
	switch r.Status {
	case StatusSent:
		b.Sent++
	case StatusSkipped:
		b.Skipped++
	case StatusFailed:
		b.Failed++
	}
}

// Dispatcher records reminders and hands them to the delivery pool.
type Dispatcher struct {
	recorder store.ReminderRecorder
	outbox   Enqueuer
	validate *validator.Validate
	logger   *slog.Logger

	storeTimeout time.Duration
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(recorder store.ReminderRecorder, outbox Enqueuer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		recorder: recorder,
		outbox:   outbox,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "reminder_dispatcher")),
	}
}

// SetStoreTimeout bounds each RecordReminder call. Zero leaves it unbounded.
func (d *Dispatcher) SetStoreTimeout(timeout time.Duration) {
	d.storeTimeout = timeout
}

// Dispatch reminds one task. The notification row and the reminded flag are
// written together before delivery is queued; a delivery problem never
// rolls them back.
func (d *Dispatcher) Dispatch(ctx context.Context, task domain.Task) DispatchResult {
	log := logger.FromContextOrDefault(ctx, d.logger).With(slog.Int64("task_id", task.ID))
	result := DispatchResult{TaskID: task.ID}

	if err := d.validate.Var(task.OwnerEmail, "required,email"); err != nil {
		result.Status = StatusFailed
		result.Reason = fmt.Errorf("%w: %q", ErrInvalidRecipient, task.OwnerEmail).Error()
		log.Error("reminder not dispatched", slog.String("reason", result.Reason))
		return result
	}

	msg := NewMessage(task)

	notification, err := d.record(ctx, task.ID, msg.LogText)
	switch {
	case errors.Is(err, store.ErrAlreadyReminded), errors.Is(err, store.ErrTaskNotFound):
		result.Status = StatusSkipped
		result.Reason = err.Error()
		log.Info("reminder skipped", slog.String("reason", result.Reason))
		return result
	case err != nil:
		result.Status = StatusFailed
		result.Reason = err.Error()
		log.Error("failed to record reminder", slog.String("error", err.Error()))
		return result
	}

	result.Status = StatusSent
	result.NotificationID = notification.ID

	job := delivery.Job{
		Kind:    delivery.KindReminder,
		TaskID:  task.ID,
		To:      task.OwnerEmail,
		Subject: msg.Subject,
		Body:    msg.HTMLBody,
	}
	if err := d.outbox.Enqueue(job); err != nil {
		log.Error("reminder recorded but not queued for delivery",
			slog.Int64("notification_id", notification.ID),
			slog.String("error", err.Error()))
		return result
	}

	log.Info("reminder dispatched", slog.Int64("notification_id", notification.ID))
	return result
}

func (d *Dispatcher) record(ctx context.Context, taskID int64, text string) (*domain.Notification, error) {
	if d.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.storeTimeout)
		defer cancel()
	}
	return d.recorder.RecordReminder(ctx, taskID, text)
}

// DispatchAll dispatches tasks in order. A failure or panic while handling
// one task is logged and does not stop the others.
func (d *Dispatcher) DispatchAll(ctx context.Context, tasks []domain.Task) BatchResult {
	var batch BatchResult
	for _, task := range tasks {
		if ctx.Err() != nil {
			batch.add(DispatchResult{TaskID: task.ID, Status: StatusFailed, Reason: ctx.Err().Error()})
			continue
		}
		batch.add(d.dispatchSafely(ctx, task))
	}
	return batch
}

func (d *Dispatcher) dispatchSafely(ctx context.Context, task domain.Task) (result DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContextOrDefault(ctx, d.logger).Error("panic while dispatching reminder",
				slog.Int64("task_id", task.ID),
				slog.Any("panic", r))
			result = DispatchResult{
				TaskID: task.ID,
				Status: StatusFailed,
				Reason: fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return d.Dispatch(ctx, task)
}

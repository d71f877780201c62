package reminder_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/delivery"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/platform/sqlite"
	"github.com/tasklytics/tasklytics-api/internal/reminder"
	"github.com/tasklytics/tasklytics-api/internal/store"
	"github.com/tasklytics/tasklytics-api/internal/testdb"
)

// recordingOutbox is an Enqueuer that keeps every job.
type recordingOutbox struct {
	mu   sync.Mutex
	jobs []delivery.Job
	err  error
}

func (o *recordingOutbox) Enqueue(job delivery.Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.jobs = append(o.jobs, job)
	return nil
}

func (o *recordingOutbox) Jobs() []delivery.Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]delivery.Job(nil), o.jobs...)
}

// harness wires the reminder engine to an in-process SQLite store.
type harness struct {
	db            *sqlx.DB
	tasks         store.TaskStore
	notifications store.NotificationStore
	recorder      store.ReminderRecorder
	clock         *reminder.ManualClock
	outbox        *recordingOutbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.NewSQLite(t)
	log := logger.NewDiscardLogger()
	return &harness{
		db:            db,
		tasks:         sqlite.NewSQLiteTaskStore(db, log),
		notifications: sqlite.NewSQLiteNotificationStore(db, log),
		recorder:      sqlite.NewSQLiteReminderRecorder(db, log),
		clock:         reminder.NewManualClock(time.Now().UTC().Truncate(time.Second)),
		outbox:        &recordingOutbox{},
	}
}

// scheduler builds a scheduler using recorder, or the store's recorder when nil.
func (h *harness) scheduler(recorder store.ReminderRecorder) *reminder.Scheduler {
	if recorder == nil {
		recorder = h.recorder
	}
	log := logger.NewDiscardLogger()
	return reminder.NewScheduler(
		reminder.NewScanner(h.tasks, 0, log),
		reminder.NewDispatcher(recorder, h.outbox, log),
		h.clock,
		reminder.Config{Interval: time.Minute, StoreTimeout: 5 * time.Second},
		log,
	)
}

func (h *harness) createTask(t *testing.T, title string, description *string, dueIn time.Duration) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(title, description, h.clock.Now().Add(dueIn), "owner@example.com")
	require.NoError(t, err)
	require.NoError(t, h.tasks.Create(context.Background(), task))
	return task
}

func (h *harness) task(t *testing.T, id int64) *domain.Task {
	t.Helper()
	task, err := h.tasks.GetByID(context.Background(), id)
	require.NoError(t, err)
	return task
}

func (h *harness) history(t *testing.T, id int64) []domain.Notification {
	t.Helper()
	n, err := h.notifications.ListByTask(context.Background(), id)
	require.NoError(t, err)
	return n
}

func strPtr(s string) *string { return &s }

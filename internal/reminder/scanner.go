package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// LeadWindow is how long before its due time a task is reminded.
const LeadWindow = 5 * time.Minute

// DueTaskFinder is the read side of the task store used by the Scanner.
// store.TaskStore satisfies it.
type DueTaskFinder interface {
	FindDueUnreminded(ctx context.Context, cutoff time.Time, after store.DueCursor, limit int) ([]domain.Task, error)
}

// Scanner selects the tasks a tick should remind.
type Scanner struct {
	finder    DueTaskFinder
	batchSize int
	logger    *slog.Logger
}

// NewScanner creates a Scanner. A batchSize of zero or less scans without a limit.
func NewScanner(finder DueTaskFinder, batchSize int, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		finder:    finder,
		batchSize: batchSize,
		logger:    logger.With(slog.String("component", "reminder_scanner")),
	}
}

// Scan returns unreminded tasks due at or before now+LeadWindow, oldest due
// first. Overdue tasks are included so reminders missed while the process was
// down still fire.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]domain.Task, error) {
	return s.ScanAfter(ctx, now, store.DueCursor{})
}

// ScanAfter is Scan starting strictly after the after cursor.
func (s *Scanner) ScanAfter(ctx context.Context, now time.Time, after store.DueCursor) ([]domain.Task, error) {
	cutoff := now.UTC().Add(LeadWindow)
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.finder.FindDueUnreminded(ctx, cutoff, after, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("scan due tasks: %w", err)
	}

	log.Debug("scanned due tasks",
		slog.Time("cutoff", cutoff),
		slog.Int64("after_task_id", after.ID),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// Next returns where the following scan should start. A full batch resumes
// after its last task; anything shorter wraps to the start.
func (s *Scanner) Next(tasks []domain.Task) store.DueCursor {
	if s.batchSize <= 0 || len(tasks) < s.batchSize {
		return store.DueCursor{}
	}
	return store.CursorAfter(tasks[len(tasks)-1])
}

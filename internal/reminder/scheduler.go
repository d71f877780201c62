package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// Scheduler errors.
var (
	ErrAlreadyStarted = errors.New("reminder scheduler already started")
	ErrTickInProgress = errors.New("reminder tick already in progress")
)

// State reports whether a tick is executing.
type State int32

// Scheduler states.
const (
	Idle State = iota
	RunningTick
)

func (s State) String() string {
	if s == RunningTick {
		return "running_tick"
	}
	return "idle"
}

// Config controls the scheduler loop.
type Config struct {
	// Interval between ticks. Cron rounds it to whole seconds.
	Interval time.Duration
	// StoreTimeout bounds the scan query of each tick. Zero leaves it unbounded.
	StoreTimeout time.Duration
}

// TickReport summarises one tick.
type TickReport struct {
	TickID   uuid.UUID
	Now      time.Time
	Duration time.Duration
	Scanned  int
	Sent     int
	Skipped  int
	Failed   int
}

// Scheduler runs the scan-and-dispatch cycle on a fixed interval. Ticks never
// overlap: a tick that fires while another is executing is skipped.
type Scheduler struct {
	scanner    *Scanner
	dispatcher *Dispatcher
	clock      Clock
	cfg        Config
	logger     *slog.Logger

	cron    *cron.Cron
	running atomic.Bool
	// cursor is where the next tick's scan starts. Only touched while running is held.
	cursor store.DueCursor

	mu      sync.Mutex
	started bool
	stopped bool
	runCtx  context.Context
	cancel  context.CancelFunc
}

// NewScheduler wires a Scheduler. A nil clock uses SystemClock.
func NewScheduler(scanner *Scanner, dispatcher *Dispatcher, clock Clock, cfg Config, log *slog.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "reminder_scheduler"))
	cl := cronLogger{logger: log}

	return &Scheduler{
		scanner:    scanner,
		dispatcher: dispatcher,
		clock:      clock,
		cfg:        cfg,
		logger:     log,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
	}
}

// Start schedules ticks every Interval. ctx supplies values such as the
// logger; cancelling it does not stop the scheduler, Stop does.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("reminder scheduler: invalid interval %s", s.cfg.Interval)
	}

	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cron.Schedule(cron.Every(s.cfg.Interval), cron.FuncJob(s.scheduledTick))
	s.cron.Start()
	s.started = true

	s.logger.Info("reminder scheduler started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("lead_window", LeadWindow))
	return nil
}

// Stop halts future ticks and waits for an in-flight tick. If ctx expires
// first the tick is cancelled and ctx's error is returned once it has
// returned. Stop before Start, or a second Stop, does nothing.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return nil
	}
	s.stopped = true

	s.logger.Info("stopping reminder scheduler", slog.String("state", s.State().String()))
	done := s.cron.Stop().Done()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		s.logger.Warn("reminder scheduler stopped, in-flight tick cancelled")
		return fmt.Errorf("reminder scheduler shutdown: %w", ctx.Err())
	}
}

// State reports whether a tick is executing.
func (s *Scheduler) State() State {
	if s.running.Load() {
		return RunningTick
	}
	return Idle
}

func (s *Scheduler) scheduledTick() {
	_, err := s.Tick(s.runCtx)
	switch {
	case errors.Is(err, ErrTickInProgress):
		s.logger.Warn("previous tick still running, skipping")
	case err != nil:
		s.logger.Error("reminder tick failed", slog.String("error", err.Error()))
	}
}

// Tick runs one scan-and-dispatch cycle. It returns ErrTickInProgress without
// doing anything when another tick is executing. A scan failure aborts the
// tick; per-task failures are counted in the report. When the scan fills the
// batch, the next tick continues after its last task so that tasks which keep
// failing cannot hold back the ones due after them.
func (s *Scheduler) Tick(ctx context.Context) (TickReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return TickReport{}, ErrTickInProgress
	}
	defer s.running.Store(false)

	report := TickReport{TickID: uuid.New(), Now: s.clock.Now()}
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("tick_id", report.TickID.String()))
	ctx = logger.WithLogger(ctx, log)
	start := time.Now()

	tasks, err := s.scan(ctx, report.Now, s.cursor)
	if err != nil {
		s.cursor = store.DueCursor{}
		report.Duration = time.Since(start)
		return report, fmt.Errorf("reminder tick: %w", err)
	}

	batch := s.dispatcher.DispatchAll(ctx, tasks)
	s.cursor = s.scanner.Next(tasks)
	if !s.cursor.IsZero() {
		log.Warn("batch limit reached, next tick resumes after last scanned task",
			slog.Int64("after_task_id", s.cursor.ID))
	}
	report.Scanned = len(tasks)
	report.Sent = batch.Sent
	report.Skipped = batch.Skipped
	report.Failed = batch.Failed
	report.Duration = time.Since(start)

	level := slog.LevelDebug
	if report.Scanned > 0 {
		level = slog.LevelInfo
	}
	log.Log(ctx, level, "reminder tick complete",
		slog.Int("scanned", report.Scanned),
		slog.Int("sent", report.Sent),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Int64("duration_ms", report.Duration.Milliseconds()))

	return report, nil
}

func (s *Scheduler) scan(ctx context.Context, now time.Time, after store.DueCursor) ([]domain.Task, error) {
	if s.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StoreTimeout)
		defer cancel()
	}
	return s.scanner.ScanAfter(ctx, now, after)
}

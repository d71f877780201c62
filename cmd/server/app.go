package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tasklytics/tasklytics-api/internal/config"
	"github.com/tasklytics/tasklytics-api/internal/delivery"
	"github.com/tasklytics/tasklytics-api/internal/notify"
	"github.com/tasklytics/tasklytics-api/internal/platform/postgres"
	"github.com/tasklytics/tasklytics-api/internal/platform/sqlite"
	"github.com/tasklytics/tasklytics-api/internal/redact"
	"github.com/tasklytics/tasklytics-api/internal/reminder"
	"github.com/tasklytics/tasklytics-api/internal/service"
	"github.com/tasklytics/tasklytics-api/internal/service/auth"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *database

	// Stores
	userStore         store.UserStore
	taskStore         store.TaskStore
	notificationStore store.NotificationStore
	reminderRecorder  store.ReminderRecorder

	// Services
	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService

	// Outbound delivery
	sender       notify.Sender
	senderCloser io.Closer
	pool         *delivery.Pool

	// Reminder engine
	scheduler *reminder.Scheduler
}

// newApplication builds every component from cfg. The delivery pool is
// started here so services can enqueue from the first request; the
// scheduler is started by Run.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *database) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.initStores()

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.sender, app.senderCloser, err = notify.New(ctx, cfg.Notifier, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}

	app.pool = delivery.NewPool(
		delivery.NewQueue(cfg.Notifier.QueueSize, logger),
		app.sender,
		delivery.Config{
			Workers:      cfg.Notifier.Workers,
			RatePerSec:   cfg.Notifier.RatePerSec,
			SendTimeout:  cfg.Notifier.SendTimeout,
			MaxAttempts:  cfg.Notifier.MaxAttempts,
			RetryBackoff: delivery.DefaultConfig().RetryBackoff,
		},
		logger,
	)
	app.pool.SetErrorHandler(func(job delivery.Job, err error) {
		// the notification row stays; a failed send is never retried by the scheduler
		logger.Error("delivery failed",
			append(job.LogAttrs(), slog.String("error", redact.Error(err)))...)
	})
	app.pool.Start()

	app.userService = service.NewUserService(
		app.userStore,
		db.sql,
		auth.NewBcryptVerifier(cfg.Auth.BCryptCost),
		app.jwtService,
		app.pool,
		cfg.Auth.ResetURLBase,
		logger,
	)
	app.taskService = service.NewTaskService(app.taskStore, app.notificationStore, db.sql, logger)

	dispatcher := reminder.NewDispatcher(app.reminderRecorder, app.pool, logger)
	dispatcher.SetStoreTimeout(cfg.Reminder.StoreTimeout)
	app.scheduler = reminder.NewScheduler(
		reminder.NewScanner(app.taskStore, cfg.Reminder.BatchSize, logger),
		dispatcher,
		reminder.SystemClock{},
		reminder.Config{
			Interval:     cfg.Reminder.Interval,
			StoreTimeout: cfg.Reminder.StoreTimeout,
		},
		logger,
	)

	logger.Info("application initialized successfully")
	return app, nil
}

func (app *application) initStores() {
	switch app.db.driver {
	case "sqlite":
		app.userStore = sqlite.NewSQLiteUserStore(app.db.sqlx, app.logger)
		app.taskStore = sqlite.NewSQLiteTaskStore(app.db.sqlx, app.logger)
		app.notificationStore = sqlite.NewSQLiteNotificationStore(app.db.sqlx, app.logger)
		app.reminderRecorder = sqlite.NewSQLiteReminderRecorder(app.db.sqlx, app.logger)
	default:
		app.userStore = postgres.NewPostgresUserStore(app.db.sql, app.logger)
		app.taskStore = postgres.NewPostgresTaskStore(app.db.sql, app.logger)
		app.notificationStore = postgres.NewPostgresNotificationStore(app.db.sql, app.logger)
		app.reminderRecorder = postgres.NewPostgresReminderRecorder(app.db.sql, app.logger)
	}
}

// Run starts the scheduler and serves HTTP until ctx is cancelled, then
// shuts everything down.
func (app *application) Run(ctx context.Context) error {
	if app.config.Reminder.Enabled {
		if err := app.scheduler.Start(ctx); err != nil {
			app.cleanup()
			return fmt.Errorf("failed to start reminder scheduler: %w", err)
		}
	} else {
		app.logger.Warn("reminder scheduler disabled by configuration")
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// shutdownTimeout returns the budget for each shutdown step.
func (app *application) shutdownTimeout() time.Duration {
	if app.config.Server.ShutdownTimeout > 0 {
		return app.config.Server.ShutdownTimeout
	}
	return 10 * time.Second
}

// cleanup stops the scheduler, drains the delivery pool, closes the sender
// and closes the database, in that order. It is safe to call more than once.
func (app *application) cleanup() {
	var errs []error

	ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout())
	defer cancel()

	if app.scheduler != nil {
		if err := app.scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if app.pool != nil {
		if err := app.pool.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if app.senderCloser != nil {
		if err := app.senderCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close notifier: %w", err))
		}
		app.senderCloser = nil
	}
	if app.db != nil {
		closeDatabase(app.db, app.logger)
		app.db = nil
	}

	if err := errors.Join(errs...); err != nil {
		app.logger.Error("application shutdown completed with errors", slog.String("error", redact.Error(err)))
		return
	}
	app.logger.Info("application shutdown completed")
}

package service_test

import (
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/config"
	"github.com/tasklytics/tasklytics-api/internal/delivery"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/platform/sqlite"
	"github.com/tasklytics/tasklytics-api/internal/service"
	"github.com/tasklytics/tasklytics-api/internal/service/auth"
	"github.com/tasklytics/tasklytics-api/internal/testdb"
)

const testSecret = "test-jwt-secret-that-is-32-chars-long"

type fakeOutbox struct {
	mu   sync.Mutex
	jobs []delivery.Job
	err  error
}

func (o *fakeOutbox) Enqueue(job delivery.Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.jobs = append(o.jobs, job)
	return nil
}

func (o *fakeOutbox) Jobs() []delivery.Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]delivery.Job(nil), o.jobs...)
}

type fixture struct {
	db     *sqlx.DB
	tasks  *service.TaskServiceImpl
	users  *service.UserServiceImpl
	tokens auth.JWTService
	outbox *fakeOutbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.NewSQLite(t)
	log := logger.NewDiscardLogger()

	tokens, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                 testSecret,
		TokenLifetimeMinutes:      60,
		ResetTokenLifetimeMinutes: 15,
	})
	require.NoError(t, err)

	outbox := &fakeOutbox{}
	return &fixture{
		db: db,
		tasks: service.NewTaskService(
			sqlite.NewSQLiteTaskStore(db, log),
			sqlite.NewSQLiteNotificationStore(db, log),
			db.DB,
			log,
		),
		users: service.NewUserService(
			sqlite.NewSQLiteUserStore(db, log),
			db.DB,
			auth.NewBcryptVerifier(4),
			tokens,
			outbox,
			"https://tasklytics.dev/reset-password",
			log,
		),
		tokens: tokens,
		outbox: outbox,
	}
}

func strPtr(s string) *string { return &s }

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/api"
	"github.com/tasklytics/tasklytics-api/internal/api/middleware"
	"github.com/tasklytics/tasklytics-api/internal/config"
	"github.com/tasklytics/tasklytics-api/internal/delivery"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/platform/sqlite"
	"github.com/tasklytics/tasklytics-api/internal/service"
	"github.com/tasklytics/tasklytics-api/internal/service/auth"
	"github.com/tasklytics/tasklytics-api/internal/testdb"
)

const (
	testSecret   = "test-jwt-secret-that-is-32-chars-long"
	testPassword = "correct-horse-battery"
)

type fakeOutbox struct {
	mu   sync.Mutex
	jobs []delivery.Job
}

func (o *fakeOutbox) Enqueue(job delivery.Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jobs = append(o.jobs, job)
	return nil
}

func (o *fakeOutbox) Jobs() []delivery.Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]delivery.Job(nil), o.jobs...)
}

type testAPI struct {
	db     *sqlx.DB
	router http.Handler
	tokens auth.JWTService
	outbox *fakeOutbox
}

func newTestAPI(t *testing.T) *testAPI {
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
	users := service.NewUserService(
		sqlite.NewSQLiteUserStore(db, log),
		db.DB,
		auth.NewBcryptVerifier(4),
		tokens,
		outbox,
		"https://tasklytics.dev/reset-password",
		log,
	)
	tasks := service.NewTaskService(
		sqlite.NewSQLiteTaskStore(db, log),
		sqlite.NewSQLiteNotificationStore(db, log),
		db.DB,
		log,
	)

	authHandler := api.NewAuthHandler(users, tokens, time.Hour, log)
	taskHandler := api.NewTaskHandler(tasks, log)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := chi.NewRouter()
	r.Use(middleware.Trace(log))
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/reset-password", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/auth/me", authHandler.Me)
			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}", taskHandler.UpdateTask)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)
			r.Get("/tasks/{id}/notifications", taskHandler.ListTaskNotifications)
			r.Get("/notifications", taskHandler.ListNotifications)
			r.Post("/notifications", taskHandler.CreateNotification)
		})
	})

	return &testAPI{db: db, router: r, tokens: tokens, outbox: outbox}
}

// do sends a JSON request. body may be nil, a string (sent verbatim) or a
// value to marshal.
func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account for email and returns an access token for it.
func (a *testAPI) register(t *testing.T, email string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email":      email,
		"password":   testPassword,
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"age":        36,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.TokenResponse
	decode(t, rec, &resp)
	return resp.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decode(t, rec, &resp)
	return resp.Error
}

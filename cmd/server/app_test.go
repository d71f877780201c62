package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/config"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/platform/migrate"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Port:               0,
			LogLevel:           "debug",
			CORSAllowedOrigins: []string{"http://localhost:5173"},
			ShutdownTimeout:    5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Driver:         "sqlite",
			URL:            filepath.Join(t.TempDir(), "tasklytics.db"),
			MigrateOnStart: true,
		},
		Auth: config.AuthConfig{
			JWTSecret:                 "test-jwt-secret-that-is-32-chars-long",
			TokenLifetimeMinutes:      60,
			ResetTokenLifetimeMinutes: 15,
			BCryptCost:                4,
			ResetURLBase:              "http://localhost:5173/reset-password",
		},
		Reminder: config.ReminderConfig{
			Enabled:      true,
			Interval:     time.Hour,
			StoreTimeout: 5 * time.Second,
			BatchSize:    100,
		},
		Notifier: config.NotifierConfig{
			Transport:   "log",
			Workers:     1,
			QueueSize:   16,
			SendTimeout: time.Second,
			MaxAttempts: 1,
		},
	}
}

func newTestApplication(t *testing.T) *application {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig(t)
	log := logger.NewDiscardLogger()

	db, err := setupAppDatabase(ctx, cfg, log)
	require.NoError(t, err)
	require.NoError(t, handleMigrations(ctx, db, migrate.CommandUp, log))

	app, err := newApplication(ctx, cfg, log, db)
	require.NoError(t, err)
	return app
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSetupAppDatabase_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "mysql"

	_, err := setupAppDatabase(context.Background(), cfg, logger.NewDiscardLogger())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestHandleMigrations_Commands(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	log := logger.NewDiscardLogger()

	db, err := setupAppDatabase(ctx, cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { closeDatabase(db, log) })

	for _, cmd := range []string{migrate.CommandUp, migrate.CommandStatus, migrate.CommandVersion} {
		assert.NoError(t, handleMigrations(ctx, db, cmd, log), cmd)
	}
	assert.Error(t, handleMigrations(ctx, db, "sideways", log))
}

func TestRouter_EndToEnd(t *testing.T) {
	app := newTestApplication(t)
	t.Cleanup(app.cleanup)
	router := app.setupRouter()

	rec := doJSON(t, router, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]any{
		"email": "ada@example.com", "password": "correct-horse-battery",
		"first_name": "Ada", "last_name": "Lovelace", "age": 36,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "ada@example.com", "password": "correct-horse-battery",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = doJSON(t, router, http.MethodPost, "/api/tasks", map[string]any{
		"title":  "Pay rent",
		"due_at": time.Now().Add(3 * time.Minute).UTC().Format(time.RFC3339),
	}, login.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	report, err := app.scheduler.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)

	rec = doJSON(t, router, http.MethodGet, "/api/notifications", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifications))
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0]["message"], "Pay rent")

	rec = doJSON(t, router, http.MethodGet, "/api/tasks", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	app := newTestApplication(t)
	t.Cleanup(app.cleanup)
	router := app.setupRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	app := newTestApplication(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.Nil(t, app.db, "database closed during shutdown")
	// a second cleanup is a no-op
	app.cleanup()
}

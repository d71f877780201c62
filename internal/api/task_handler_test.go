package api_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasklytics/tasklytics-api/internal/api"
)

func (a *testAPI) createTask(t *testing.T, token, title string, dueAt time.Time) api.TaskResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":       title,
		"description": "Bring the paperwork",
		"due_at":      dueAt.Format(time.RFC3339),
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var task api.TaskResponse
	decode(t, rec, &task)
	return task
}

func (a *testAPI) markReminded(t *testing.T, id int64) {
	t.Helper()
	_, err := a.db.ExecContext(context.Background(), `UPDATE tasks SET reminded = 1 WHERE id = ?`, id)
	require.NoError(t, err)
}

func TestCreateTask(t *testing.T) {
	a := newTestAPI(t)
	token := a.register(t, "ada@example.com")
	due := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)

	task := a.createTask(t, token, "Pay rent", due)

	assert.Positive(t, task.ID)
	assert.Equal(t, "Pay rent", task.Title)
	require.NotNil(t, task.Description)
	assert.Equal(t, "Bring the paperwork", *task.Description)
	assert.True(t, due.Equal(task.DueAt))
	assert.Equal(t, "ada@example.com", task.UserEmail)
	assert.False(t, task.Reminded)

	t.Run("missing title", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/tasks", map[string]any{
			"due_at": due.Format(time.RFC3339),
		}, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid Title: required field", errorMessage(t, rec))
	})

	t.Run("missing due date", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "No date"}, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/tasks", map[string]any{
			"title": "x", "due_at": due.Format(time.RFC3339), "user_email": "eve@example.com",
		}, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/tasks", map[string]any{
			"title": "x", "due_at": due.Format(time.RFC3339),
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTasksAreScopedToTheCaller(t *testing.T) {
	a := newTestAPI(t)
	ada := a.register(t, "ada@example.com")
	eve := a.register(t, "eve@example.com")
	due := time.Now().Add(time.Hour).UTC()

	first := a.createTask(t, ada, "First", due)
	a.createTask(t, ada, "Second", due.Add(time.Hour))
	a.createTask(t, eve, "Eve's", due)

	rec := a.do(t, http.MethodGet, "/api/tasks", nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []api.TaskResponse
	decode(t, rec, &tasks)
	require.Len(t, tasks, 2)
	assert.Equal(t, "First", tasks[0].Title)
	assert.Equal(t, "Second", tasks[1].Title)

	path := fmt.Sprintf("/api/tasks/%d", first.ID)

	rec = a.do(t, http.MethodGet, path, nil, ada)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = a.do(t, method, path, nil, eve)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		assert.Equal(t, "Task not found", errorMessage(t, rec))
	}
	rec = a.do(t, http.MethodPut, path, map[string]any{"title": "mine now"}, eve)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTask_InvalidID(t *testing.T) {
	a := newTestAPI(t)
	token := a.register(t, "ada@example.com")

	for _, id := range []string{"abc", "0", "-4"} {
		rec := a.do(t, http.MethodGet, "/api/tasks/"+id, nil, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
		assert.Equal(t, "Invalid id: has invalid format", errorMessage(t, rec))
	}

	rec := a.do(t, http.MethodGet, "/api/tasks/999", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTask(t *testing.T) {
	a := newTestAPI(t)
	token := a.register(t, "ada@example.com")
	due := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		task := a.createTask(t, token, "Pay rent", due)
		a.markReminded(t, task.ID)

		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID),
			map[string]any{"title": "Pay the rent"}, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got api.TaskResponse
		decode(t, rec, &got)
		assert.Equal(t, "Pay the rent", got.Title)
		require.NotNil(t, got.Description)
		assert.Equal(t, "Bring the paperwork", *got.Description)
		assert.True(t, due.Equal(got.DueAt))
		assert.True(t, got.Reminded, "a title change does not re-arm")
	})

	t.Run("moving the due date forward re-arms", func(t *testing.T) {
		task := a.createTask(t, token, "Dentist", due)
		a.markReminded(t, task.ID)

		newDue := due.Add(24 * time.Hour)
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID),
			map[string]any{"due_at": newDue.Format(time.RFC3339)}, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got api.TaskResponse
		decode(t, rec, &got)
		assert.True(t, newDue.Equal(got.DueAt))
		assert.False(t, got.Reminded)
	})

	t.Run("moving the due date into the past does not re-arm", func(t *testing.T) {
		task := a.createTask(t, token, "Old", due)
		a.markReminded(t, task.ID)

		past := time.Now().Add(-time.Hour).UTC()
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID),
			map[string]any{"due_at": past.Format(time.RFC3339)}, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got api.TaskResponse
		decode(t, rec, &got)
		assert.True(t, got.Reminded)
	})

	t.Run("empty update", func(t *testing.T) {
		task := a.createTask(t, token, "Nothing", due)
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{}, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No fields to update", errorMessage(t, rec))
	})

	t.Run("blank title", func(t *testing.T) {
		task := a.createTask(t, token, "Blank", due)
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID),
			map[string]any{"title": "   "}, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid title: cannot be empty", errorMessage(t, rec))
	})
}

func TestDeleteTask_CascadesNotifications(t *testing.T) {
	a := newTestAPI(t)
	token := a.register(t, "ada@example.com")
	task := a.createTask(t, token, "Pay rent", time.Now().Add(time.Hour))

	rec := a.do(t, http.MethodPost, "/api/notifications", map[string]any{
		"task_id": task.ID, "message": "Heads up",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	path := fmt.Sprintf("/api/tasks/%d", task.ID)
	rec = a.do(t, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = a.do(t, http.MethodGet, path, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/notifications", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications []api.NotificationResponse
	decode(t, rec, &notifications)
	assert.Empty(t, notifications)

	rec = a.do(t, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifications(t *testing.T) {
	a := newTestAPI(t)
	ada := a.register(t, "ada@example.com")
	eve := a.register(t, "eve@example.com")
	task := a.createTask(t, ada, "Pay rent", time.Now().Add(time.Hour))
	other := a.createTask(t, ada, "Dentist", time.Now().Add(2*time.Hour))

	for _, msg := range []string{"first", "second"} {
		rec := a.do(t, http.MethodPost, "/api/notifications",
			map[string]any{"task_id": task.ID, "message": msg}, ada)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var n api.NotificationResponse
		decode(t, rec, &n)
		assert.Equal(t, task.ID, n.TaskID)
		assert.Equal(t, msg, n.Message)
	}
	rec := a.do(t, http.MethodPost, "/api/notifications",
		map[string]any{"task_id": other.ID, "message": "third"}, ada)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("per task", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d/notifications", task.ID), nil, ada)
		require.Equal(t, http.StatusOK, rec.Code)
		var got []api.NotificationResponse
		decode(t, rec, &got)
		assert.Len(t, got, 2)
	})

	t.Run("all, newest first", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/notifications", nil, ada)
		require.Equal(t, http.StatusOK, rec.Code)
		var got []api.NotificationResponse
		decode(t, rec, &got)
		require.Len(t, got, 3)
		assert.Equal(t, "third", got[0].Message)
		assert.Equal(t, "first", got[2].Message)
	})

	t.Run("other users see nothing", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/notifications", nil, eve)
		require.Equal(t, http.StatusOK, rec.Code)
		var got []api.NotificationResponse
		decode(t, rec, &got)
		assert.Empty(t, got)

		rec = a.do(t, http.MethodPost, "/api/notifications",
			map[string]any{"task_id": task.ID, "message": "sneaky"}, eve)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d/notifications", task.ID), nil, eve)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/notifications",
			map[string]any{"task_id": task.ID, "message": ""}, ada)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = a.do(t, http.MethodPost, "/api/notifications",
			map[string]any{"task_id": 0, "message": "x"}, ada)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

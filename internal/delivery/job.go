package delivery

import (
	"log/slog"

	"github.com/google/uuid"
)

// Kind labels what a job delivers, for logs.
type Kind string

// Job kinds.
const (
	KindReminder      Kind = "reminder"
	KindPasswordReset Kind = "password_reset"
)

// Job is one message to deliver.
type Job struct {
	ID      uuid.UUID
	Kind    Kind
	TaskID  int64 // zero when the job is not tied to a task
	To      string
	Subject string
	Body    string
}

// LogAttrs returns the attributes identifying the job in log records.
func (j Job) LogAttrs() []any {
	attrs := []any{
		slog.String("job_id", j.ID.String()),
		slog.String("kind", string(j.Kind)),
	}
	if j.TaskID != 0 {
		attrs = append(attrs, slog.Int64("task_id", j.TaskID))
	}
	return attrs
}

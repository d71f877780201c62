package domain

import (
	"strings"
	"time"
)

// Notification is an immutable record that a message was produced for a task,
// either by the reminder scheduler or by an explicit API call.
type Notification struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotification builds a validated, unsaved notification for taskID.
func NewNotification(taskID int64, message string) (*Notification, error) {
	n := &Notification{
		TaskID:    taskID,
		Message:   strings.TrimSpace(message),
		CreatedAt: time.Now().UTC(),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks the notification invariants.
func (n *Notification) Validate() error {
	if n.TaskID <= 0 {
		return NewValidationError("task_id", "must be a positive integer", ErrInvalidID)
	}
	if n.Message == "" {
		return NewValidationError("message", "cannot be empty", ErrEmptyContent)
	}
	return nil
}

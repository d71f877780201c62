package domain

import (
	"strings"
	"time"
)

// Task is a unit of work owned by a user, identified by the owner's e-mail address.
// Reminded is set once the scheduler has recorded a reminder for the current DueAt.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	DueAt       time.Time `json:"due_at"`
	OwnerEmail  string    `json:"owner_email"`
	Reminded    bool      `json:"reminded"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask builds a validated task that has not been persisted yet.
func NewTask(title string, description *string, dueAt time.Time, ownerEmail string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		Title:       strings.TrimSpace(title),
		Description: description,
		DueAt:       dueAt.UTC(),
		OwnerEmail:  strings.TrimSpace(ownerEmail),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the task invariants that do not depend on storage.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "cannot be empty", ErrEmptyContent)
	}
	if t.DueAt.IsZero() {
		return NewValidationError("due_at", "is required", ErrValidation)
	}
	if t.OwnerEmail == "" {
		return NewValidationError("owner_email", "is required", ErrEmptyEmail)
	}
	if !validateEmailFormat(t.OwnerEmail) {
		return NewValidationError("owner_email", "has invalid format", ErrInvalidEmail)
	}
	return nil
}

// DescriptionOr returns the description, or fallback when it is absent or blank.
func (t *Task) DescriptionOr(fallback string) string {
	if t.Description == nil || strings.TrimSpace(*t.Description) == "" {
		return fallback
	}
	return *t.Description
}

// TaskUpdate carries a partial update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueAt       *time.Time
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.DueAt == nil
}

// Apply returns a copy of t with the update applied. The returned task's Reminded
// flag is re-armed when the due time moves to a different instant after now.
func (u TaskUpdate) Apply(t Task, now time.Time) (Task, error) {
	if u.Title != nil {
		t.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		t.Description = u.Description
	}
	if u.DueAt != nil {
		due := u.DueAt.UTC()
		if ShouldRearm(t.DueAt, due, now) {
			t.Reminded = false
		}
		t.DueAt = due
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	t.UpdatedAt = now.UTC()
	return t, nil
}

// ShouldRearm reports whether moving a task's due time from oldDue to newDue
// makes it eligible for another reminder.
func ShouldRearm(oldDue, newDue, now time.Time) bool {
	return !newDue.Equal(oldDue) && newDue.After(now)
}

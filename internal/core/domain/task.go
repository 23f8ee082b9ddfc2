package domain

import (
	"strings"
	"time"
)

type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	DueDate     Date
	IsComplete  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask holds the caller supplied fields of a task that does not exist yet.
type NewTask struct {
	Title       string
	Description *string
	DueDate     Date
}

// TaskPatch is a partial update. A nil field is left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *Date
	IsComplete  *bool
}

// Build returns the task as it will be persisted for owner: trimmed title and
// description, empty description when absent, not complete.
func (n NewTask) Build(owner int64) Task {
	description := ""
	if n.Description != nil {
		description = strings.TrimSpace(*n.Description)
	}

	return Task{
		UserID:      owner,
		Title:       strings.TrimSpace(n.Title),
		Description: description,
		DueDate:     n.DueDate,
		IsComplete:  false,
	}
}

func (t *Task) BelongsToUser(userID int64) bool {
	return t.UserID == userID
}

// Apply merges the patch into the task and reports whether anything changed.
// Strings are applied only when non-blank after trimming and different from
// the current value.
func (t *Task) Apply(p TaskPatch) bool {
	if p.IsEmpty() {
		return false
	}

	changed := false

	if title, ok := mergeString(p.Title, t.Title); ok {
		t.Title = title
		changed = true
	}

	if description, ok := mergeString(p.Description, t.Description); ok {
		t.Description = description
		changed = true
	}

	if p.DueDate != nil && !p.DueDate.IsZero() && *p.DueDate != t.DueDate {
		t.DueDate = *p.DueDate
		changed = true
	}

	if p.IsComplete != nil && *p.IsComplete != t.IsComplete {
		t.IsComplete = *p.IsComplete
		changed = true
	}

	return changed
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.IsComplete == nil
}

func mergeString(candidate *string, current string) (string, bool) {
	if candidate == nil {
		return current, false
	}

	trimmed := strings.TrimSpace(*candidate)

	if trimmed == "" || trimmed == current {
		return current, false
	}

	return trimmed, true
}

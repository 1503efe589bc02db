package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the closed set of task states. Values are the backend wire
// representation.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "To do"
	StatusInProgress TaskStatus = "In progress"
	StatusDone       TaskStatus = "Done"
)

// Statuses lists every status in display order.
func Statuses() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusDone}
}

// Valid reports whether s belongs to the status domain.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseTaskStatus accepts the wire values and the short aliases used on the
// command line (todo, in-progress, done).
func ParseTaskStatus(raw string) (TaskStatus, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	switch norm {
	case "to do", "todo":
		return StatusTodo, nil
	case "in progress", "inprogress", "progress":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// Task is the cached copy of a backend task. Status transitions are not
// restricted client-side: any status may move to any other.
type Task struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Status         TaskStatus `json:"status"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	AssignedUserID *int64     `json:"assigned_user_id,omitempty"`
	CreatedByID    *int64     `json:"created_by_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	AttachmentURL  *string    `json:"attachment_url,omitempty"`
}

// IsAssignedTo reports whether the task is assigned to userID.
func (t Task) IsAssignedTo(userID int64) bool {
	return t.AssignedUserID != nil && *t.AssignedUserID == userID
}

// IsCreatedBy reports whether userID created the task.
func (t Task) IsCreatedBy(userID int64) bool {
	return t.CreatedByID != nil && *t.CreatedByID == userID
}

// TaskDraft is the staging object behind the create/edit form. It is owned
// by the form and discarded on submit or cancel. Optional fields are sent as
// explicit nulls so a cleared field is cleared on the backend too.
// CreatedByID carries the signed-in user like the web form does; the backend
// may prefer the token's subject.
type TaskDraft struct {
	Title          string     `json:"title"            validate:"required,max=200"`
	Description    *string    `json:"description"`
	Status         TaskStatus `json:"status"           validate:"required,taskstatus"`
	Deadline       *time.Time `json:"deadline"`
	AssignedUserID *int64     `json:"assigned_user_id" validate:"omitempty,gt=0"`
	CreatedByID    *int64     `json:"created_by_id,omitempty"`
	AttachmentURL  *string    `json:"attachment_url"   validate:"omitempty,url"`
}

// NewTaskDraft returns the blank draft shown when creating a task.
func NewTaskDraft() TaskDraft {
	return TaskDraft{Status: StatusTodo}
}

// DraftFromTask seeds the edit form from an existing task.
func DraftFromTask(t Task) TaskDraft {
	return TaskDraft{
		Title:          t.Title,
		Description:    cloneString(t.Description),
		Status:         t.Status,
		Deadline:       cloneTime(t.Deadline),
		AssignedUserID: cloneInt64(t.AssignedUserID),
		CreatedByID:    cloneInt64(t.CreatedByID),
		AttachmentURL:  cloneString(t.AttachmentURL),
	}
}

// WithStatus returns a copy of the draft moved to status.
func (d TaskDraft) WithStatus(status TaskStatus) TaskDraft {
	d.Status = status
	return d
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

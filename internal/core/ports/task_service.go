package ports

import (
	"context"

	"github.com/flowtask/flowtask/internal/core/domain"
)

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// TaskService is the read-through task cache plus the CRUD actions that
// invalidate it.
type TaskService interface {
	Tasks(ctx context.Context) ([]domain.Task, error)
	Refresh(ctx context.Context) ([]domain.Task, error)
	Users(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
	Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	Update(ctx context.Context, id int64, draft domain.TaskDraft) (*domain.Task, error)
	ChangeStatus(ctx context.Context, id int64, status domain.TaskStatus) (*domain.Task, error)
	Delete(ctx context.Context, id int64, confirm Confirmer) (bool, error)
}

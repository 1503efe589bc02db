package ports

import (
	"context"

	"github.com/flowtask/flowtask/internal/core/domain"
)

// TaskFilter narrows GET /tasks/. Zero values are omitted from the query.
type TaskFilter struct {
	Status     domain.TaskStatus
	AssignedTo int64
}

// AuthGateway covers the /auth endpoints.
type AuthGateway interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// UserGateway covers the /users endpoints.
type UserGateway interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// TaskGateway covers the /tasks endpoints.
type TaskGateway interface {
	ListTasks(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int64, draft domain.TaskDraft) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Gateway is the full backend surface.
type Gateway interface {
	AuthGateway
	UserGateway
	TaskGateway
}

// TokenSource yields the currently persisted bearer token ("" when none).
type TokenSource interface {
	LoadToken(ctx context.Context) (string, error)
}

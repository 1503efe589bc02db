package ports

import (
	"context"

	"github.com/flowtask/flowtask/internal/core/domain"
)

// SessionService owns the authentication state machine.
type SessionService interface {
	Initialize(ctx context.Context) (domain.Session, error)
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, name, password string) error
	Logout(ctx context.Context) error
	Invalidate(ctx context.Context)
	Current() domain.Session
}

// LoginRedirector sends the user back to the login surface after the
// backend rejected their credentials.
type LoginRedirector interface {
	RedirectToLogin(ctx context.Context)
}

package ports

import (
	"context"

	"github.com/flowtask/flowtask/internal/core/domain"
)

// SessionStore persists the token and user of one client instance across
// process restarts. Both entries are written and cleared together.
type SessionStore interface {
	TokenSource
	// LoadUser returns nil, nil when no user is stored.
	LoadUser(ctx context.Context) (*domain.User, error)
	Save(ctx context.Context, token string, user domain.User) error
	Clear(ctx context.Context) error
	Close() error
}

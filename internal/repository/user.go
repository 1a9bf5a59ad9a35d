package repository

import (
	"context"
	"time"

	"busticket/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user. Returns ErrConflict on duplicate username or email.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByLogin retrieves a user by username or email.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)

	// UpdateRole changes the role of the user with the given username.
	UpdateRole(ctx context.Context, username string, role domain.UserRole) error
}

// SessionRepository defines the persistence operations for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error

	// GetByKey retrieves a session by its session key.
	GetByKey(ctx context.Context, key string) (*domain.Session, error)

	// Touch records activity on a session.
	Touch(ctx context.Context, key string, at time.Time) error

	// Deactivate ends a session.
	Deactivate(ctx context.Context, key string) error
}

package auth

import (
	"context"

	"mise/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID within a tenant.
	GetByID(ctx context.Context, tenantID, userID id.ID) (*User, error)

	// GetByEmail retrieves user by email within a tenant.
	GetByEmail(ctx context.Context, tenantID id.ID, email string) (*User, error)

	// Update updates user data (with optimistic locking).
	Update(ctx context.Context, user *User) error

	// Exists checks if email exists within a tenant.
	Exists(ctx context.Context, tenantID id.ID, email string) (bool, error)
}

// Package actor identifies who is performing a core operation.
//
// Every core call receives an explicit Actor instead of reading tenant or
// user information off ambient request state. The request layer builds the
// Actor once (from the auth middleware) and threads it through.
package actor

import (
	"context"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
)

// Actor carries the tenant and user on whose behalf a core call runs.
// The core trusts both as already authenticated and authorized.
type Actor struct {
	TenantID id.ID
	UserID   string
}

// Validate checks the actor is usable for tenant-scoped operations.
func (a Actor) Validate() error {
	if id.IsNil(a.TenantID) {
		return apperror.NewUnauthorized("tenant not resolved")
	}
	if a.UserID == "" {
		return apperror.NewUnauthorized("user not resolved")
	}
	return nil
}

type actorKey struct{}

// WithActor stores the actor in context for logging enrichment.
// Core services still take the Actor as an explicit argument.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor stored in context, if any.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

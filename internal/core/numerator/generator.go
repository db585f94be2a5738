package numerator

import (
	"context"
	"time"

	"mise/internal/core/id"
)

// Generator hands out document numbers. Sequences are scoped per
// tenant: two tenants posting the same document prefix never contend
// on the same counter row. The PostgreSQL implementation lives in
// infrastructure/numerator.
type Generator interface {
	// GetNextNumber produces the next number in the shape
	// PREFIX-YEAR-XXXXX, like SC-2026-00001. period selects which
	// sequence row serves the call when the config resets by period.
	GetNextNumber(ctx context.Context, tenantID id.ID, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber pins the counter, for migrating numbering from
	// another system.
	SetNextNumber(ctx context.Context, tenantID id.ID, cfg Config, period time.Time, value int64) error
}

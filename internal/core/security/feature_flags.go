// Package security provides capability and feature flag evaluation.
package security

import (
	"context"
	"sync"
)

// FeatureFlagProvider answers whether a capability is on for the
// current context. Backends range from the in-memory map used in
// tests to CEL policies scoped by tenant.
type FeatureFlagProvider interface {
	IsEnabled(ctx context.Context, flag string) bool

	// GetValue returns the flag's configuration value, for flags that
	// carry more than on/off.
	GetValue(ctx context.Context, flag string) any
}

// Capability flag names.
const (
	// FlagLotAllocationFEFO enables first-expired-first-out lot
	// allocation when posting order issues. Off by default: issues
	// are written unlotted. The flag exists so the simplification
	// stays an explicit, queryable capability.
	FlagLotAllocationFEFO = "lot_allocation_fefo"

	// FlagAsyncPosting moves ledger writes to a background worker.
	FlagAsyncPosting = "async_posting"
)

// InMemoryFlags holds flags in process memory. Fine for single-node
// deployments and tests; flags reset on restart.
type InMemoryFlags struct {
	mu     sync.RWMutex
	flags  map[string]bool
	values map[string]any
}

var _ FeatureFlagProvider = (*InMemoryFlags)(nil)

// NewInMemoryFlags creates an in-memory flag provider with everything
// off.
func NewInMemoryFlags() *InMemoryFlags {
	return &InMemoryFlags{
		flags:  make(map[string]bool),
		values: make(map[string]any),
	}
}

func (f *InMemoryFlags) IsEnabled(ctx context.Context, flag string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.flags[flag]
}

func (f *InMemoryFlags) GetValue(ctx context.Context, flag string) any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[flag]
}

// SetFlag turns a flag on or off.
func (f *InMemoryFlags) SetFlag(flag string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[flag] = enabled
}

// SetValue stores a configuration value for the flag.
func (f *InMemoryFlags) SetValue(flag string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[flag] = value
}

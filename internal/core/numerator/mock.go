package numerator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"mise/internal/core/id"
)

// MockGenerator is the Generator used by service unit tests. Without
// overrides it numbers sequentially from 1 in the real format, so
// tests can assert on document numbers without a database.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, tenantID id.ID, cfg Config, opts *Options, period time.Time) (string, error)
	SetNextNumberFunc func(ctx context.Context, tenantID id.ID, cfg Config, period time.Time, value int64) error

	counter atomic.Int64
}

var _ Generator = (*MockGenerator)(nil)

func (m *MockGenerator) GetNextNumber(ctx context.Context, tenantID id.ID, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, tenantID, cfg, opts, period)
	}
	n := m.counter.Add(1)
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), n), nil
}

func (m *MockGenerator) SetNextNumber(ctx context.Context, tenantID id.ID, cfg Config, period time.Time, value int64) error {
	if m.SetNextNumberFunc != nil {
		return m.SetNextNumberFunc(ctx, tenantID, cfg, period, value)
	}
	return nil
}

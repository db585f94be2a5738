package ledger

import (
	"context"
	"sort"
	"sync"

	"mise/internal/core/id"
	"mise/internal/core/types"
)

// MemoryRepository is an in-memory Repository for unit tests.
// It enforces the same append-only contract as the SQL implementation.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []Entry

	// AppendErr, when set, is returned by Append to simulate failures.
	AppendErr error
}

// NewMemoryRepository creates an empty in-memory ledger.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(ctx context.Context, entries []Entry) error {
	if r.AppendErr != nil {
		return r.AppendErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *MemoryRepository) SumDeltas(ctx context.Context, key Key) (types.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum types.Quantity
	for _, e := range r.entries {
		if key.Matches(e) {
			sum = sum.Add(e.QtyDelta)
		}
	}
	return sum, nil
}

func (r *MemoryRepository) SumDeltasByProducts(ctx context.Context, tenantID, locationID id.ID, productIDs []id.ID) (map[id.ID]types.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[id.ID]bool, len(productIDs))
	for _, pid := range productIDs {
		wanted[pid] = true
	}

	sums := make(map[id.ID]types.Quantity)
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.LocationID == locationID && wanted[e.ProductID] {
			sums[e.ProductID] = sums[e.ProductID].Add(e.QtyDelta)
		}
	}
	return sums, nil
}

func (r *MemoryRepository) ListByRef(ctx context.Context, tenantID id.ID, refType string, refID id.ID) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.RefType == refType && e.RefID == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListByKey(ctx context.Context, key Key, filter HistoryFilter) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, e := range r.entries {
		if !key.Matches(e) {
			continue
		}
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		if filter.FromDate != nil && e.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && e.CreatedAt.After(*filter.ToDate) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Count returns the total number of entries (test helper).
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

var _ Repository = (*MemoryRepository)(nil)

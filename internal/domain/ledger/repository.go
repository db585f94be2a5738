package ledger

import (
	"context"
	"time"

	"mise/internal/core/id"
	"mise/internal/core/types"
)

// Repository defines storage operations for the stock ledger.
// The contract is append-only: there is no update or delete.
type Repository interface {
	// Append batch inserts entries (used during posting, inside the
	// posting transaction).
	Append(ctx context.Context, entries []Entry) error

	// SumDeltas returns the signed sum of deltas for a key.
	// A key with no entries sums to zero; a key carrying a lot
	// sums only that lot's entries.
	SumDeltas(ctx context.Context, key Key) (types.Quantity, error)

	// SumDeltasByProducts returns sums for many products at one location
	// in a single query. Products with no entries are absent from the map.
	SumDeltasByProducts(ctx context.Context, tenantID, locationID id.ID, productIDs []id.ID) (map[id.ID]types.Quantity, error)

	// ListByRef returns all entries produced by one document.
	ListByRef(ctx context.Context, tenantID id.ID, refType string, refID id.ID) ([]Entry, error)

	// ListByKey returns entry history for a key, newest first.
	ListByKey(ctx context.Context, key Key, filter HistoryFilter) ([]Entry, error)
}

// HistoryFilter narrows ledger history queries.
type HistoryFilter struct {
	Type     *EntryType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

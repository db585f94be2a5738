package ledger

import (
	"context"
	"fmt"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/pkg/logger"
)

// Service provides business operations over the stock ledger.
// Transactions are managed by the caller (posting engine).
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record validates and appends ledger entries.
// Called during document posting within a transaction.
func (s *Service) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for i, e := range entries {
		if err := validateEntry(e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	if err := s.repo.Append(ctx, entries); err != nil {
		return fmt.Errorf("append entries: %w", err)
	}

	logger.Info(ctx, "recorded ledger entries",
		"count", len(entries),
		"ref_type", entries[0].RefType,
		"ref_id", entries[0].RefID,
	)

	return nil
}

// OnHand returns the current on-hand quantity for a key.
// A key that has never moved is zero, not an error.
func (s *Service) OnHand(ctx context.Context, key Key) (types.Quantity, error) {
	if id.IsNil(key.TenantID) || id.IsNil(key.LocationID) || id.IsNil(key.ProductID) {
		return 0, apperror.NewValidation("tenant, location and product are required")
	}

	qty, err := s.repo.SumDeltas(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("sum deltas: %w", err)
	}

	return qty, nil
}

// OnHandByProducts returns on-hand quantities for many products at one
// location. Every requested product appears in the result; products with
// no ledger history are zero.
func (s *Service) OnHandByProducts(ctx context.Context, tenantID, locationID id.ID, productIDs []id.ID) (map[id.ID]types.Quantity, error) {
	if len(productIDs) == 0 {
		return map[id.ID]types.Quantity{}, nil
	}

	sums, err := s.repo.SumDeltasByProducts(ctx, tenantID, locationID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("sum deltas: %w", err)
	}

	result := make(map[id.ID]types.Quantity, len(productIDs))
	for _, pid := range productIDs {
		result[pid] = sums[pid]
	}

	return result, nil
}

// EntriesForRef returns all entries written by one document.
func (s *Service) EntriesForRef(ctx context.Context, tenantID id.ID, refType string, refID id.ID) ([]Entry, error) {
	return s.repo.ListByRef(ctx, tenantID, refType, refID)
}

// History returns entry history for a key, newest first.
func (s *Service) History(ctx context.Context, key Key, filter HistoryFilter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.ListByKey(ctx, key, filter)
}

// validateEntry checks entry invariants before it becomes immutable.
func validateEntry(e Entry) error {
	if id.IsNil(e.TenantID) {
		return apperror.NewValidation("tenant_id is required")
	}
	if id.IsNil(e.LocationID) || id.IsNil(e.ProductID) {
		return apperror.NewValidation("location_id and product_id are required")
	}
	if e.RefType == "" || id.IsNil(e.RefID) {
		return apperror.NewValidation("ledger entry requires a document reference")
	}
	if e.QtyDelta.IsZero() {
		return apperror.NewValidation("qty_delta must be non-zero")
	}

	switch e.Type {
	case TypeReceipt, TypeIssueReversal:
		if !e.QtyDelta.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("%s delta must be positive", e.Type))
		}
	case TypeIssue:
		if !e.QtyDelta.IsNegative() {
			return apperror.NewValidation("issue delta must be negative")
		}
	case TypeAdjustment:
		// either sign, already checked non-zero
	default:
		return apperror.NewValidation(fmt.Sprintf("unknown entry type %q", e.Type))
	}

	return nil
}

// Package stockcount implements the physical stock count document.
// Flow: lines are collected in draft with system quantities snapshotted
// from the ledger as they are added, counts recorded, then the document
// moves to review where system quantities are re-read and variances
// frozen. Posting writes one adjustment entry per non-zero variance.
package stockcount

import (
	"context"
	"fmt"
	"time"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/core/workflow"
	"mise/internal/domain/ledger"
	"mise/internal/domain/posting"
)

// StockCount is the count document with its lines.
type StockCount struct {
	entity.Document

	Lines []Line `db:"-" json:"lines,omitempty"`
}

// Line is one product, or one lot of a product, being counted.
type Line struct {
	ID         id.ID  `db:"id" json:"id"`
	DocumentID id.ID  `db:"document_id" json:"documentId"`
	LineNo     int    `db:"line_no" json:"lineNo"`
	ProductID  id.ID  `db:"product_id" json:"productId"`
	LotID      *id.ID `db:"lot_id" json:"lotId,omitempty"`

	// SystemQty is the ledger on-hand, snapshotted when the line is
	// added and re-read once more when the document enters review.
	SystemQty types.Quantity `db:"system_qty" json:"systemQty"`

	// CountedQty is the physically counted quantity, nil until recorded.
	CountedQty *types.Quantity `db:"counted_qty" json:"countedQty,omitempty"`

	// Variance is counted minus system. It tracks the operands while the
	// document is a draft and freezes at review; later ledger movement
	// does not change it.
	Variance types.Quantity `db:"variance_qty" json:"variance"`

	CountedBy string     `db:"counted_by" json:"countedBy,omitempty"`
	CountedAt *time.Time `db:"counted_at" json:"countedAt,omitempty"`
}

// New creates a draft stock count for a location.
func New(tenantID, locationID id.ID) *StockCount {
	return &StockCount{
		Document: entity.NewDocument(tenantID, locationID, workflow.KindStockCount),
	}
}

// Kind implements posting.Postable.
func (sc *StockCount) Kind() workflow.Kind { return workflow.KindStockCount }

// Validate implements entity.Validatable.
func (sc *StockCount) Validate(ctx context.Context) error {
	if err := sc.Document.Validate(ctx); err != nil {
		return err
	}

	seen := make(map[string]bool, len(sc.Lines))
	for i, line := range sc.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("lineNo", i+1)
		}
		key := lineKey(line.ProductID, line.LotID)
		if seen[key] {
			return apperror.NewValidation("product appears on more than one line").
				WithDetail("productId", line.ProductID.String())
		}
		seen[key] = true
	}

	return nil
}

// lineKey identifies a count position. The same product may appear on
// several lines as long as each names a different lot.
func lineKey(productID id.ID, lotID *id.ID) string {
	if lotID == nil {
		return productID.String()
	}
	return productID.String() + "/" + lotID.String()
}

// AddLine appends a product to count, carrying the ledger on-hand
// snapshot taken at add time. Only allowed in draft.
func (sc *StockCount) AddLine(productID id.ID, lotID *id.ID, systemQty types.Quantity) (*Line, error) {
	if err := workflow.ForKind(sc.Kind()).EnsureEditable(sc.Status); err != nil {
		return nil, err
	}
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product is required")
	}
	key := lineKey(productID, lotID)
	for _, line := range sc.Lines {
		if lineKey(line.ProductID, line.LotID) == key {
			return nil, apperror.NewValidation("product appears on more than one line").
				WithDetail("productId", productID.String())
		}
	}

	line := Line{
		ID:         id.New(),
		DocumentID: sc.ID,
		LineNo:     len(sc.Lines) + 1,
		ProductID:  productID,
		LotID:      lotID,
		SystemQty:  systemQty,
	}
	sc.Lines = append(sc.Lines, line)
	sc.Touch()

	return &sc.Lines[len(sc.Lines)-1], nil
}

// RecordCount stores the physically counted quantity for a line.
// Only allowed in draft; counts after review would bypass the freeze.
func (sc *StockCount) RecordCount(lineNo int, qty types.Quantity, countedBy string) error {
	if err := workflow.ForKind(sc.Kind()).EnsureEditable(sc.Status); err != nil {
		return err
	}
	if qty.IsNegative() {
		return apperror.NewValidation("counted quantity cannot be negative").
			WithDetail("lineNo", lineNo)
	}

	idx := lineNo - 1
	if idx < 0 || idx >= len(sc.Lines) {
		return apperror.NewValidation(fmt.Sprintf("line %d does not exist", lineNo))
	}

	now := time.Now().UTC()
	line := &sc.Lines[idx]
	line.CountedQty = &qty
	line.CountedBy = countedBy
	line.CountedAt = &now
	// The draft variance tracks the recorded count against the add-time
	// system snapshot.
	line.Variance = qty.Sub(line.SystemQty)
	sc.Touch()

	return nil
}

// Freeze re-reads system quantities and freezes variances. Called when
// the document enters review; systemQty carries the ledger on-hand per
// line number as of that moment and overwrites the add-time snapshots.
func (sc *StockCount) Freeze(systemQty map[int]types.Quantity) error {
	if len(sc.Lines) == 0 {
		return apperror.NewValidation("stock count has no lines")
	}

	for i := range sc.Lines {
		line := &sc.Lines[i]
		if line.CountedQty == nil {
			return apperror.NewValidation("all lines must be counted before review").
				WithDetail("lineNo", line.LineNo)
		}
		line.SystemQty = systemQty[line.LineNo]
		line.Variance = line.CountedQty.Sub(line.SystemQty)
	}

	return nil
}

// HasVariance reports whether at least one line has a non-zero variance.
// Sub-resolution differences are exactly zero at fixed-point scale.
func (sc *StockCount) HasVariance() bool {
	for _, line := range sc.Lines {
		if !line.Variance.IsZero() {
			return true
		}
	}
	return false
}

// GenerateEntries implements posting.Postable. One adjustment per line
// with a non-zero frozen variance.
func (sc *StockCount) GenerateEntries(ctx context.Context, to workflow.Status) ([]ledger.Entry, error) {
	if to != workflow.StatusPosted {
		return nil, apperror.NewInternal(
			fmt.Errorf("stock count writes no entries for transition to %s", to),
		)
	}

	entries := make([]ledger.Entry, 0, len(sc.Lines))
	for _, line := range sc.Lines {
		if line.Variance.IsZero() {
			continue
		}

		e := ledger.NewEntry(sc.TenantID, sc.LocationID, line.ProductID, ledger.TypeAdjustment, line.Variance)
		e.LotID = line.LotID
		e.RefType = ledger.RefStockCount
		e.RefID = sc.ID
		e.CreatedBy = sc.UpdatedBy
		entries = append(entries, e)
	}

	return entries, nil
}

var _ posting.Postable = (*StockCount)(nil)

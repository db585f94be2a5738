// Package goodsreceipt implements the goods receipt document.
// Deliveries are captured as created documents and posted to the ledger
// as receipt entries carrying the delivered unit cost.
package goodsreceipt

import (
	"context"
	"fmt"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/core/workflow"
	"mise/internal/domain/ledger"
	"mise/internal/domain/posting"
)

// GoodsReceipt is the delivery document with its lines.
type GoodsReceipt struct {
	entity.Document

	// SupplierRef is a free-form supplier reference (name or external
	// document number).
	SupplierRef string `db:"supplier_ref" json:"supplierRef,omitempty"`

	Lines []Line `db:"-" json:"lines,omitempty"`
}

// Line is one delivered product.
type Line struct {
	ID         id.ID `db:"id" json:"id"`
	DocumentID id.ID `db:"document_id" json:"documentId"`
	LineNo     int   `db:"line_no" json:"lineNo"`
	ProductID  id.ID `db:"product_id" json:"productId"`

	Qty      types.Quantity `db:"qty" json:"qty"`
	UnitCost types.Money    `db:"unit_cost" json:"unitCost"`

	// LotID tags the delivery lot when lot tracking is in use.
	LotID *id.ID `db:"lot_id" json:"lotId,omitempty"`
}

// New creates a goods receipt for a location.
func New(tenantID, locationID id.ID) *GoodsReceipt {
	return &GoodsReceipt{
		Document: entity.NewDocument(tenantID, locationID, workflow.KindGoodsReceipt),
	}
}

// Kind implements posting.Postable.
func (g *GoodsReceipt) Kind() workflow.Kind { return workflow.KindGoodsReceipt }

// Validate implements entity.Validatable.
func (g *GoodsReceipt) Validate(ctx context.Context) error {
	if err := g.Document.Validate(ctx); err != nil {
		return err
	}

	for i, line := range g.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("lineNo", i+1)
		}
		if !line.Qty.IsPositive() {
			return apperror.NewValidation("received quantity must be positive").
				WithDetail("lineNo", i+1)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// AddLine appends a delivered product. Only allowed before posting.
func (g *GoodsReceipt) AddLine(productID id.ID, qty types.Quantity, unitCost types.Money, lotID *id.ID) (*Line, error) {
	if err := workflow.ForKind(g.Kind()).EnsureEditable(g.Status); err != nil {
		return nil, err
	}
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product is required")
	}
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("received quantity must be positive")
	}

	line := Line{
		ID:         id.New(),
		DocumentID: g.ID,
		LineNo:     len(g.Lines) + 1,
		ProductID:  productID,
		Qty:        qty,
		UnitCost:   unitCost,
		LotID:      lotID,
	}
	g.Lines = append(g.Lines, line)
	g.Touch()

	return &g.Lines[len(g.Lines)-1], nil
}

// TotalCost returns the delivery total (sum of qty * unit cost).
func (g *GoodsReceipt) TotalCost() types.Money {
	total := types.ZeroMoney()
	for _, line := range g.Lines {
		total = total.Add(line.UnitCost.Mul(line.Qty.Decimal()))
	}
	return total
}

// GenerateEntries implements posting.Postable. One receipt per line,
// carrying the delivered unit cost and lot.
func (g *GoodsReceipt) GenerateEntries(ctx context.Context, to workflow.Status) ([]ledger.Entry, error) {
	if to != workflow.StatusPosted {
		return nil, apperror.NewInternal(
			fmt.Errorf("goods receipt writes no entries for transition to %s", to),
		)
	}

	entries := make([]ledger.Entry, 0, len(g.Lines))
	for _, line := range g.Lines {
		e := ledger.NewEntry(g.TenantID, g.LocationID, line.ProductID, ledger.TypeReceipt, line.Qty)
		cost := line.UnitCost
		e.UnitCost = &cost
		e.LotID = line.LotID
		e.RefType = ledger.RefGoodsReceipt
		e.RefID = g.ID
		e.CreatedBy = g.UpdatedBy
		entries = append(entries, e)
	}

	return entries, nil
}

var _ posting.Postable = (*GoodsReceipt)(nil)

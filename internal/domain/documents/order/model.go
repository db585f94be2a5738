// Package order implements the sales order document.
// An order carries two independent state machines: the document workflow
// (open, posted, voided) that drives ledger writes, and the kitchen
// preparation status derived from its items.
package order

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

// Order is the sales order with its items.
type Order struct {
	entity.Document

	// PrepStatus is the aggregate kitchen status, derived from items.
	PrepStatus workflow.PrepStatus `db:"prep_status" json:"prepStatus"`

	Items []Item `db:"-" json:"items,omitempty"`

	// reversalBase holds the original ledger entries when voiding a
	// posted order. Set by the service right before the void transition.
	reversalBase []ledger.Entry
}

// Item is one ordered product.
type Item struct {
	ID         id.ID `db:"id" json:"id"`
	DocumentID id.ID `db:"document_id" json:"documentId"`
	LineNo     int   `db:"line_no" json:"lineNo"`
	ProductID  id.ID `db:"product_id" json:"productId"`

	Qty       types.Quantity `db:"qty" json:"qty"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`

	// PrepStatus tracks the item through the kitchen. It never affects
	// the ledger.
	PrepStatus workflow.ItemPrepStatus `db:"prep_status" json:"prepStatus"`
}

// New creates an open order for a location.
func New(tenantID, locationID id.ID) *Order {
	return &Order{
		Document:   entity.NewDocument(tenantID, locationID, workflow.KindOrder),
		PrepStatus: workflow.PrepOpen,
	}
}

// Kind implements posting.Postable.
func (o *Order) Kind() workflow.Kind { return workflow.KindOrder }

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	for i, item := range o.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("lineNo", i+1)
		}
		if !item.Qty.IsPositive() {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// AddItem appends a product to an open order.
func (o *Order) AddItem(productID id.ID, qty types.Quantity, unitPrice types.Money) (*Item, error) {
	if err := workflow.ForKind(o.Kind()).EnsureEditable(o.Status); err != nil {
		return nil, err
	}
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product is required")
	}
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("item quantity must be positive")
	}

	item := Item{
		ID:         id.New(),
		DocumentID: o.ID,
		LineNo:     len(o.Items) + 1,
		ProductID:  productID,
		Qty:        qty,
		UnitPrice:  unitPrice,
		PrepStatus: workflow.ItemQueued,
	}
	o.Items = append(o.Items, item)
	o.Touch()

	return &o.Items[len(o.Items)-1], nil
}

// Total returns the order total (sum of qty * unit price).
func (o *Order) Total() types.Money {
	total := types.ZeroMoney()
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(item.Qty.Decimal()))
	}
	return total
}

// SetItemPrep moves one item through the kitchen and re-derives the
// order's aggregate prep status.
func (o *Order) SetItemPrep(lineNo int, to workflow.ItemPrepStatus) error {
	idx := lineNo - 1
	if idx < 0 || idx >= len(o.Items) {
		return apperror.NewValidation(fmt.Sprintf("item %d does not exist", lineNo))
	}

	if err := workflow.CanTransitionItemPrep(o.Items[idx].PrepStatus, to); err != nil {
		return err
	}
	o.Items[idx].PrepStatus = to

	statuses := make([]workflow.ItemPrepStatus, len(o.Items))
	for i, item := range o.Items {
		statuses[i] = item.PrepStatus
	}
	o.PrepStatus = workflow.DeriveOrderPrepStatus(o.PrepStatus, statuses)
	o.Touch()

	return nil
}

// SetReversalBase stores the original ledger entries of a posted order so
// that voiding can compensate them exactly.
func (o *Order) SetReversalBase(entries []ledger.Entry) {
	o.reversalBase = entries
}

// GenerateEntries implements posting.Postable.
//
// Posting writes one issue per non-cancelled item. Issues are unlotted;
// lot selection is a separate capability. Voiding a posted order mirrors
// its original entries with issue reversals.
func (o *Order) GenerateEntries(ctx context.Context, to workflow.Status) ([]ledger.Entry, error) {
	switch to {
	case workflow.StatusPosted:
		entries := make([]ledger.Entry, 0, len(o.Items))
		for _, item := range o.Items {
			if item.PrepStatus == workflow.ItemCancelled {
				continue
			}

			e := ledger.NewEntry(o.TenantID, o.LocationID, item.ProductID, ledger.TypeIssue, item.Qty.Neg())
			e.RefType = ledger.RefOrder
			e.RefID = o.ID
			e.CreatedBy = o.UpdatedBy
			entries = append(entries, e)
		}
		return entries, nil

	case workflow.StatusVoided:
		entries := make([]ledger.Entry, 0, len(o.reversalBase))
		for _, orig := range o.reversalBase {
			e := ledger.NewEntry(orig.TenantID, orig.LocationID, orig.ProductID, ledger.TypeIssueReversal, orig.QtyDelta.Neg())
			e.LotID = orig.LotID
			e.RefType = ledger.RefOrder
			e.RefID = o.ID
			e.CreatedBy = o.UpdatedBy
			entries = append(entries, e)
		}
		return entries, nil

	default:
		return nil, apperror.NewInternal(
			fmt.Errorf("order writes no entries for transition to %s", to),
		)
	}
}

var _ posting.Postable = (*Order)(nil)

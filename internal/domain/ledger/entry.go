// Package ledger provides the append-only stock ledger.
// It is the single source of truth for on-hand quantities: every stock
// effect is a signed entry, and balances are sums over entries. Entries
// are never updated or deleted; corrections are new entries.
package ledger

import (
	"time"

	"mise/internal/core/id"
	"mise/internal/core/types"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	// TypeReceipt records incoming stock (positive delta).
	TypeReceipt EntryType = "receipt"

	// TypeIssue records outgoing stock (negative delta).
	TypeIssue EntryType = "issue"

	// TypeIssueReversal compensates a prior issue (positive delta).
	// Written when a posted document is voided.
	TypeIssueReversal EntryType = "issue_reversal"

	// TypeAdjustment records a correction in either direction (non-zero delta).
	TypeAdjustment EntryType = "adjustment"
)

// Reference document types.
const (
	RefStockCount   = "stock_count"
	RefOrder        = "order"
	RefWasteRecord  = "waste_record"
	RefGoodsReceipt = "goods_receipt"
)

// Entry is one immutable row of the stock ledger.
type Entry struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	LocationID id.ID  `db:"location_id" json:"locationId"`
	ProductID  id.ID  `db:"product_id" json:"productId"`
	LotID      *id.ID `db:"lot_id" json:"lotId,omitempty"`

	Type EntryType `db:"entry_type" json:"type"`

	// QtyDelta is the signed quantity effect. The sign is part of the
	// value, not derived from Type, so balance queries stay a plain SUM.
	QtyDelta types.Quantity `db:"qty_delta" json:"qtyDelta"`

	// UnitCost is the per-unit cost at entry time, when known (receipts).
	UnitCost *types.Money `db:"unit_cost" json:"unitCost,omitempty"`

	// RefType and RefID point at the document that produced this entry.
	RefType string `db:"ref_type" json:"refType"`
	RefID   id.ID  `db:"ref_id" json:"refId"`

	Note      string    `db:"note" json:"note,omitempty"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewEntry creates an entry with generated ID and timestamp.
// The caller fills reference and lot fields before recording.
func NewEntry(tenantID, locationID, productID id.ID, typ EntryType, delta types.Quantity) Entry {
	return Entry{
		ID:         id.New(),
		TenantID:   tenantID,
		LocationID: locationID,
		ProductID:  productID,
		Type:       typ,
		QtyDelta:   delta,
		CreatedAt:  time.Now().UTC(),
	}
}

// Key identifies a balance bucket: one product at one location of one tenant.
// A nil LotID sums across all lots; a set LotID narrows to that lot only.
type Key struct {
	TenantID   id.ID
	LocationID id.ID
	ProductID  id.ID
	LotID      *id.ID
}

// Matches reports whether an entry belongs to this key's bucket.
func (k Key) Matches(e Entry) bool {
	if e.TenantID != k.TenantID || e.LocationID != k.LocationID || e.ProductID != k.ProductID {
		return false
	}
	if k.LotID == nil {
		return true
	}
	return e.LotID != nil && *e.LotID == *k.LotID
}

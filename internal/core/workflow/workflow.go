// Package workflow provides the shared document state machine.
//
// Every document kind (stock count, order, waste record, goods receipt)
// instantiates the same engine with its own transition table, so transition
// legality and line-edit locking are enforced in one place instead of being
// duplicated per document type.
package workflow

import (
	"mise/internal/core/apperror"
)

// Kind identifies a document kind in the workflow engine.
type Kind string

const (
	KindStockCount   Kind = "StockCount"
	KindOrder        Kind = "Order"
	KindWasteRecord  Kind = "WasteRecord"
	KindGoodsReceipt Kind = "GoodsReceipt"
)

// Status is a document workflow status. Each kind uses its own subset.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusOpen    Status = "open"
	StatusCreated Status = "created"
	StatusReview  Status = "review"
	StatusPosted  Status = "posted"
	StatusVoided  Status = "voided"
)

type transition struct {
	from, to Status
}

// Table is the transition table for one document kind.
type Table struct {
	kind    Kind
	initial Status
	legal   map[transition]bool
	// ledger marks the transitions that must write ledger entries and
	// therefore run through the posting coordinator.
	ledger map[transition]bool
}

var tables = map[Kind]*Table{
	KindStockCount: {
		kind:    KindStockCount,
		initial: StatusDraft,
		legal: map[transition]bool{
			{StatusDraft, StatusReview}:  true,
			{StatusReview, StatusPosted}: true,
		},
		ledger: map[transition]bool{
			{StatusReview, StatusPosted}: true,
		},
	},
	KindOrder: {
		kind:    KindOrder,
		initial: StatusOpen,
		legal: map[transition]bool{
			{StatusOpen, StatusPosted}:   true,
			{StatusOpen, StatusVoided}:   true,
			{StatusPosted, StatusVoided}: true,
		},
		ledger: map[transition]bool{
			{StatusOpen, StatusPosted}: true,
			// Voiding a posted order reverses its issues; voiding an
			// open order writes nothing.
			{StatusPosted, StatusVoided}: true,
		},
	},
	KindWasteRecord: {
		kind:    KindWasteRecord,
		initial: StatusDraft,
		legal: map[transition]bool{
			{StatusDraft, StatusPosted}: true,
		},
		ledger: map[transition]bool{
			{StatusDraft, StatusPosted}: true,
		},
	},
	KindGoodsReceipt: {
		kind:    KindGoodsReceipt,
		initial: StatusCreated,
		legal: map[transition]bool{
			{StatusCreated, StatusPosted}: true,
		},
		ledger: map[transition]bool{
			{StatusCreated, StatusPosted}: true,
		},
	},
}

// ForKind returns the transition table for a document kind.
// Panics on unknown kinds: registering a kind without a table is a
// programming error, not a runtime condition.
func ForKind(k Kind) *Table {
	t, ok := tables[k]
	if !ok {
		panic("workflow: no transition table for kind " + string(k))
	}
	return t
}

// Kind returns the document kind this table belongs to.
func (t *Table) Kind() Kind { return t.kind }

// Initial returns the status a freshly created document starts in.
func (t *Table) Initial() Status { return t.initial }

// CanTransition returns nil if the transition is legal for this kind,
// apperror InvalidTransition otherwise.
func (t *Table) CanTransition(from, to Status) error {
	if !t.legal[transition{from, to}] {
		return apperror.NewInvalidTransition(string(t.kind), string(from), string(to))
	}
	return nil
}

// WritesLedger reports whether the transition must append ledger entries
// atomically with the status flip.
func (t *Table) WritesLedger(from, to Status) bool {
	return t.ledger[transition{from, to}]
}

// EnsureEditable returns nil while the document is still in its initial
// status (lines may be created or edited), apperror DocumentLocked after it
// has moved on.
func (t *Table) EnsureEditable(status Status) error {
	if status != t.initial {
		return apperror.NewDocumentLocked(string(t.kind), string(status))
	}
	return nil
}

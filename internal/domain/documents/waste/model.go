// Package waste implements the waste record document.
// Spoilage, breakage and comped dishes are written off here: the document
// collects lines in draft, requires an approver, and posting writes one
// negative adjustment per line.
package waste

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

// WasteRecord is the write-off document with its lines.
type WasteRecord struct {
	entity.Document

	// Reason is a free-form write-off reason (spoilage, breakage, comp).
	Reason string `db:"reason" json:"reason"`

	// ApprovedBy is the user who approved the write-off. Required
	// before posting; waste moves stock without a sale to back it.
	ApprovedBy string `db:"approved_by" json:"approvedBy,omitempty"`

	Lines []Line `db:"-" json:"lines,omitempty"`
}

// Line is one product being written off.
type Line struct {
	ID         id.ID `db:"id" json:"id"`
	DocumentID id.ID `db:"document_id" json:"documentId"`
	LineNo     int   `db:"line_no" json:"lineNo"`
	ProductID  id.ID `db:"product_id" json:"productId"`

	Qty  types.Quantity `db:"qty" json:"qty"`
	Note string         `db:"note" json:"note,omitempty"`
}

// New creates a draft waste record for a location.
func New(tenantID, locationID id.ID, reason string) *WasteRecord {
	return &WasteRecord{
		Document: entity.NewDocument(tenantID, locationID, workflow.KindWasteRecord),
		Reason:   reason,
	}
}

// Kind implements posting.Postable.
func (w *WasteRecord) Kind() workflow.Kind { return workflow.KindWasteRecord }

// Validate implements entity.Validatable.
func (w *WasteRecord) Validate(ctx context.Context) error {
	if err := w.Document.Validate(ctx); err != nil {
		return err
	}

	if w.Reason == "" {
		return apperror.NewValidation("reason is required").
			WithDetail("field", "reason")
	}

	for i, line := range w.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("lineNo", i+1)
		}
		if !line.Qty.IsPositive() {
			return apperror.NewValidation("waste quantity must be positive").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// AddLine appends a product to a draft waste record.
func (w *WasteRecord) AddLine(productID id.ID, qty types.Quantity, note string) (*Line, error) {
	if err := workflow.ForKind(w.Kind()).EnsureEditable(w.Status); err != nil {
		return nil, err
	}
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product is required")
	}
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("waste quantity must be positive")
	}

	line := Line{
		ID:         id.New(),
		DocumentID: w.ID,
		LineNo:     len(w.Lines) + 1,
		ProductID:  productID,
		Qty:        qty,
		Note:       note,
	}
	w.Lines = append(w.Lines, line)
	w.Touch()

	return &w.Lines[len(w.Lines)-1], nil
}

// Approve records the approving user. Only meaningful in draft.
func (w *WasteRecord) Approve(approvedBy string) error {
	if err := workflow.ForKind(w.Kind()).EnsureEditable(w.Status); err != nil {
		return err
	}
	if approvedBy == "" {
		return apperror.NewValidation("approver is required")
	}

	w.ApprovedBy = approvedBy
	w.Touch()
	return nil
}

// CanPost checks posting preconditions beyond the transition table.
func (w *WasteRecord) CanPost(ctx context.Context) error {
	if err := w.Validate(ctx); err != nil {
		return err
	}

	if w.ApprovedBy == "" {
		return apperror.NewBusinessRule(
			"WASTE_NOT_APPROVED",
			"waste record must be approved before posting",
		).WithDetail("document_id", w.ID.String())
	}

	if len(w.Lines) == 0 {
		return apperror.NewValidation("waste record has no lines")
	}

	return nil
}

// GenerateEntries implements posting.Postable. One negative adjustment
// per line.
func (w *WasteRecord) GenerateEntries(ctx context.Context, to workflow.Status) ([]ledger.Entry, error) {
	if to != workflow.StatusPosted {
		return nil, apperror.NewInternal(
			fmt.Errorf("waste record writes no entries for transition to %s", to),
		)
	}

	entries := make([]ledger.Entry, 0, len(w.Lines))
	for _, line := range w.Lines {
		e := ledger.NewEntry(w.TenantID, w.LocationID, line.ProductID, ledger.TypeAdjustment, line.Qty.Neg())
		e.RefType = ledger.RefWasteRecord
		e.RefID = w.ID
		e.Note = line.Note
		e.CreatedBy = w.UpdatedBy
		entries = append(entries, e)
	}

	return entries, nil
}

var _ posting.Postable = (*WasteRecord)(nil)

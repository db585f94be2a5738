package entity

import (
	"context"
	"time"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/workflow"
)

// Document is the base type for business transactions.
// Examples: StockCount, Order, WasteRecord, GoodsReceipt.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Status holds the workflow state. Legal transitions are defined
	// per document kind; moving a document past posted is never
	// possible except through voiding.
	Status workflow.Status `db:"status" json:"status"`

	// LocationID is the location the document operates on
	LocationID id.ID `db:"location_id" json:"locationId"`

	// Note is an optional user comment
	Note string `db:"note" json:"note,omitempty"`
}

// NewDocument creates a new Document in the initial status of its kind.
func NewDocument(tenantID, locationID id.ID, kind workflow.Kind) Document {
	return Document{
		BaseDocument: NewBaseDocument(tenantID),
		Date:         time.Now().UTC(),
		Status:       workflow.ForKind(kind).Initial(),
		LocationID:   locationID,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}

	if id.IsNil(d.LocationID) {
		return apperror.NewValidation("location is required").
			WithDetail("field", "locationId")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// IsPosted returns true if the document has reached posted status.
func (d *Document) IsPosted() bool {
	return d.Status == workflow.StatusPosted
}

// IsVoided returns true if the document has been voided.
func (d *Document) IsVoided() bool {
	return d.Status == workflow.StatusVoided
}

// SetStatus moves the document to the given status and touches it.
// Transition legality is checked by the caller against the kind's table.
func (d *Document) SetStatus(s workflow.Status) {
	d.Status = s
	d.Touch()
}

// IsBackdated checks if document date is in the past.
func (d *Document) IsBackdated() bool {
	return d.Date.Before(time.Now().UTC().Truncate(24 * time.Hour))
}

// GetID returns the document ID (Postable interface).
func (d *Document) GetID() id.ID {
	return d.ID
}

// GetTenantID returns the owning tenant (Postable interface).
func (d *Document) GetTenantID() id.ID {
	return d.TenantID
}

// GetStatus returns the current workflow status (Postable interface).
func (d *Document) GetStatus() workflow.Status {
	return d.Status
}

package waste

import (
	"context"
	"time"

	"mise/internal/core/id"
	"mise/internal/core/workflow"
	"mise/internal/domain"
)

// Repository defines operations for waste records.
type Repository interface {
	Create(ctx context.Context, doc *WasteRecord) error
	GetByID(ctx context.Context, tenantID, docID id.ID) (*WasteRecord, error)
	Update(ctx context.Context, doc *WasteRecord) error

	GetLines(ctx context.Context, tenantID, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, doc *WasteRecord) error

	List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*WasteRecord], error)

	// StatusForUpdate re-reads the document status under a row lock.
	StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error)
}

// ListFilter for filtering waste records.
type ListFilter struct {
	domain.ListFilter

	LocationID *id.ID
	Status     *workflow.Status
	Reason     string
	DateFrom   *time.Time
	DateTo     *time.Time
}

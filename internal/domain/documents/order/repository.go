package order

import (
	"context"
	"time"

	"mise/internal/core/id"
	"mise/internal/core/workflow"
	"mise/internal/domain"
)

// Repository defines operations for order documents.
type Repository interface {
	Create(ctx context.Context, doc *Order) error
	GetByID(ctx context.Context, tenantID, docID id.ID) (*Order, error)
	Update(ctx context.Context, doc *Order) error

	GetItems(ctx context.Context, tenantID, docID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, doc *Order) error

	List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*Order], error)

	// StatusForUpdate re-reads the document status under a row lock.
	StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error)
}

// ListFilter for filtering orders.
type ListFilter struct {
	domain.ListFilter

	LocationID *id.ID
	Status     *workflow.Status
	PrepStatus *workflow.PrepStatus
	DateFrom   *time.Time
	DateTo     *time.Time
}

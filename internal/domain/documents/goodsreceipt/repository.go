package goodsreceipt

import (
	"context"
	"time"

	"mise/internal/core/id"
	"mise/internal/core/workflow"
	"mise/internal/domain"
)

// Repository defines operations for goods receipts.
type Repository interface {
	Create(ctx context.Context, doc *GoodsReceipt) error
	GetByID(ctx context.Context, tenantID, docID id.ID) (*GoodsReceipt, error)
	Update(ctx context.Context, doc *GoodsReceipt) error

	GetLines(ctx context.Context, tenantID, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, doc *GoodsReceipt) error

	List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*GoodsReceipt], error)

	// StatusForUpdate re-reads the document status under a row lock.
	StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error)
}

// ListFilter for filtering goods receipts.
type ListFilter struct {
	domain.ListFilter

	LocationID *id.ID
	Status     *workflow.Status
	DateFrom   *time.Time
	DateTo     *time.Time
}

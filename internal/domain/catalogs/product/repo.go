package product

import (
	"context"

	"mise/internal/core/id"
	"mise/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetByBarcode retrieves a product by barcode within a tenant.
	GetByBarcode(ctx context.Context, tenantID id.ID, barcode string) (*Product, error)
}

package product

import (
	"context"

	"mise/internal/core/actor"
	"mise/internal/core/apperror"
	"mise/internal/core/tx"
	"mise/internal/domain"
)

// Service provides business logic for the Product catalog.
// Common CRUD comes from domain.CatalogService.
type Service struct {
	*domain.CatalogService[*Product]
	repo Repository
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// GetByBarcode retrieves a product by barcode.
func (s *Service) GetByBarcode(ctx context.Context, act actor.Actor, barcode string) (*Product, error) {
	if barcode == "" {
		return nil, apperror.NewValidation("barcode is required")
	}
	p, err := s.repo.GetByBarcode(ctx, act.TenantID, barcode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", barcode)
		}
		return nil, err
	}
	return p, nil
}

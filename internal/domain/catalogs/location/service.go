package location

import (
	"mise/internal/core/tx"
	"mise/internal/domain"
)

// Service provides business logic for the Location catalog.
// Common CRUD comes from domain.CatalogService.
type Service struct {
	*domain.CatalogService[*Location]
	repo Repository
}

// NewService creates a new Location service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Location]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "location",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

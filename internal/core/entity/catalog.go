package entity

import (
	"context"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
)

// Catalog is the base shape of reference data such as products and
// locations: a tenant-unique code plus a display name.
type Catalog struct {
	BaseCatalog

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(tenantID id.ID, code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(tenantID),
		Code:        code,
		Name:        name,
	}
}

// Validate checks the invariants shared by all catalogs. Concrete
// catalogs call it before their own checks.
func (c *Catalog) Validate(ctx context.Context) error {
	if id.IsNil(c.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

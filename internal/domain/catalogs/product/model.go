// Package product provides the Product catalog.
// Products are the items the ledger counts: ingredients, prepared dishes
// and retail goods.
package product

import (
	"context"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
)

// ProductType defines the type of item.
type ProductType string

const (
	TypeIngredient ProductType = "ingredient" // raw material counted by stock
	TypeDish       ProductType = "dish"       // prepared item sold on orders
	TypeRetail     ProductType = "retail"     // resold as-is (bottled drinks etc.)
)

// Product represents a countable item.
type Product struct {
	entity.Catalog

	// Type defines item category
	Type ProductType `db:"type" json:"type"`

	// SKU is the item article
	SKU *string `db:"sku" json:"sku,omitempty"`

	// Barcode is the item barcode (EAN-13, etc.)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Unit is the base unit of measure (kg, l, pcs)
	Unit string `db:"unit" json:"unit"`

	// TrackLots indicates if item is tracked by delivery lots
	TrackLots bool `db:"track_lots" json:"trackLots"`

	// IsActive indicates if the product can appear on new documents
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(tenantID id.ID, code, name string, itemType ProductType) *Product {
	return &Product{
		Catalog:  entity.NewCatalog(tenantID, code, name),
		Type:     itemType,
		Unit:     "pcs",
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Type {
	case TypeIngredient, TypeDish, TypeRetail:
	default:
		return apperror.NewValidation("invalid product type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}

	if p.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	return nil
}

// Package location provides the Location catalog.
// Locations are the physical places stock lives in: restaurants, bars,
// central kitchens, storage rooms. Every ledger entry and every document
// is pinned to one.
package location

import (
	"context"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
)

// LocationType defines the type of location.
type LocationType string

const (
	TypeRestaurant LocationType = "restaurant"
	TypeBar        LocationType = "bar"
	TypeKitchen    LocationType = "kitchen"
	TypeStorage    LocationType = "storage"
)

// Location represents a place stock is held and sold from.
type Location struct {
	entity.Catalog

	// Type defines the location category
	Type LocationType `db:"type" json:"type"`

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive indicates if the location is operational
	IsActive bool `db:"is_active" json:"isActive"`

	// Timezone in IANA form, used for business-date boundaries
	Timezone string `db:"timezone" json:"timezone,omitempty"`
}

// NewLocation creates a new Location with required fields.
func NewLocation(tenantID id.ID, code, name string, locType LocationType) *Location {
	return &Location{
		Catalog:  entity.NewCatalog(tenantID, code, name),
		Type:     locType,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(ctx context.Context) error {
	if err := l.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch l.Type {
	case TypeRestaurant, TypeBar, TypeKitchen, TypeStorage:
	default:
		return apperror.NewValidation("invalid location type").
			WithDetail("field", "type").
			WithDetail("value", string(l.Type))
	}

	return nil
}

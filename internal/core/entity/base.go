package entity

import (
	"context"
	"time"

	"mise/internal/core/id"
)

// Validatable is implemented by entities that can check their own
// invariants without touching storage.
type Validatable interface {
	// Validate returns nil or an AppError describing the violation.
	Validate(ctx context.Context) error
}

// BaseEntity carries the fields every stored entity has.
type BaseEntity struct {
	// ID is the UUIDv7 primary key.
	ID id.ID `db:"id" json:"id"`

	// TenantID scopes the entity to a tenant. All reads and writes
	// filter on it; cross-tenant access is never possible by ID alone.
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	// DeletionMark is the soft-delete flag.
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version backs optimistic locking and grows by one per update.
	Version int `db:"version" json:"version"`
}

// NewBaseEntity returns a fresh entity with a generated ID at version 1.
func NewBaseEntity(tenantID id.ID) BaseEntity {
	return BaseEntity{
		ID:       id.New(),
		TenantID: tenantID,
		Version:  1,
	}
}

// Touch bumps the optimistic-locking version.
func (b *BaseEntity) Touch() {
	b.Version++
}

// MarkDeleted sets the deletion mark.
func (b *BaseEntity) MarkDeleted() {
	b.DeletionMark = true
}

// Undelete clears the deletion mark.
func (b *BaseEntity) Undelete() {
	b.DeletionMark = false
}

// SetVersion overwrites the version, used by repositories after a
// write bumps it server-side.
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// BaseDocument adds the audit trail fields documents carry on top of
// BaseEntity.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument returns a fresh document with ID and timestamps set.
func NewBaseDocument(tenantID id.ID) BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(tenantID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch refreshes UpdatedAt along with the version bump.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.BaseEntity.Touch()
}

// SetUpdatedAt overwrites the timestamp, used by repositories.
func (b *BaseDocument) SetUpdatedAt(t time.Time) {
	b.UpdatedAt = t
}

// BaseCatalog is BaseEntity under a document-distinct name; catalogs
// carry no audit timestamps.
type BaseCatalog struct {
	BaseEntity
}

// NewBaseCatalog returns a fresh catalog entity with a generated ID.
func NewBaseCatalog(tenantID id.ID) BaseCatalog {
	return BaseCatalog{
		BaseEntity: NewBaseEntity(tenantID),
	}
}

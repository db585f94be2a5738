// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"

	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/domain/filter"
)

// ListFilter is the common query shape for list operations.
type ListFilter struct {
	// Search matches against the entity's searchable fields, code and
	// name for catalogs, number for documents.
	Search string

	// IDs restricts the result to these IDs.
	IDs []id.ID

	// IncludeDeleted also returns soft-deleted rows.
	IncludeDeleted bool

	// AdvancedFilters holds arbitrary per-field conditions.
	AdvancedFilters []filter.Item

	// OrderBy names the sort column, with an optional leading "-" for
	// descending.
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// ListResult is one page of items plus the unpaginated total.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogRepository is the storage contract for catalog entities. All
// reads are scoped by tenant; an ID from another tenant is not found.
// Hard delete is intentionally absent, rows only carry a deletion
// mark.
type CatalogRepository[T entity.Validatable] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, tenantID, id id.ID) (T, error)
	GetByCode(ctx context.Context, tenantID id.ID, code string) (T, error)

	// Update writes the entity back under optimistic locking.
	Update(ctx context.Context, entity T) error

	SetDeletionMark(ctx context.Context, tenantID, id id.ID, marked bool) error
	List(ctx context.Context, tenantID id.ID, filter ListFilter) (ListResult[T], error)
	Exists(ctx context.Context, tenantID, id id.ID) (bool, error)
	ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error)
}

// HookEvent names a lifecycle point hooks can attach to. The post and
// void events only fire for documents.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
	BeforePost   HookEvent = "before_post"
	AfterPost    HookEvent = "after_post"
	BeforeVoid   HookEvent = "before_void"
	AfterVoid    HookEvent = "after_void"
)

// Hook runs at a lifecycle point. A before hook returning an error
// aborts the operation.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type. Registration
// happens at wiring time; Run is not safe against concurrent On calls.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the event's hooks in registration order, stopping at
// the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

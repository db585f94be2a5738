// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"fmt"

	"mise/internal/core/actor"
	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/tx"
	"mise/pkg/logger"
)

// CatalogService is the generic write-through service for catalog
// entities. Concrete services wrap it with their own lookups.
type CatalogService[T entity.Validatable] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	hooks     *HookRegistry[T]

	// entityName shows up in errors and hook failure logs.
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Validatable] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Validatable](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// mutate is the shared write path: validate the actor and entity, run
// the before hook, apply op in a transaction, then run the after hook.
// After hooks fire outside the transaction and only warn on failure,
// the write has already committed.
func (s *CatalogService[T]) mutate(ctx context.Context, act actor.Actor, item T, before, after HookEvent, op func(ctx context.Context) error) error {
	if err := act.Validate(); err != nil {
		return err
	}
	if err := item.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.Run(ctx, before, item); err != nil {
		return err
	}

	if err := s.txManager.RunInTransaction(ctx, op); err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, after, item); err != nil {
		logger.Warn(ctx, "after hook failed", "entity", s.entityName, "event", after, "error", err)
	}
	return nil
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, idOrCode any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrCode)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrCode)
}

// Create validates and inserts a new catalog entity.
func (s *CatalogService[T]) Create(ctx context.Context, act actor.Actor, item T) error {
	return s.mutate(ctx, act, item, BeforeCreate, AfterCreate, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, item); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
}

// Update validates and writes back an existing entity. Version
// conflicts surface as concurrent modification errors from the repo.
func (s *CatalogService[T]) Update(ctx context.Context, act actor.Actor, item T) error {
	return s.mutate(ctx, act, item, BeforeUpdate, AfterUpdate, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, item); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, act actor.Actor, entityID id.ID) (T, error) {
	item, err := s.repo.GetByID(ctx, act.TenantID, entityID)
	if err != nil {
		return item, s.normalizeGetErr(err, entityID.String())
	}
	return item, nil
}

// GetByCode retrieves entity by code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, act actor.Actor, code string) (T, error) {
	item, err := s.repo.GetByCode(ctx, act.TenantID, code)
	if err != nil {
		return item, s.normalizeGetErr(err, code)
	}
	return item, nil
}

// Delete soft-deletes the entity, running delete hooks around the
// mark. The row stays in place for documents that reference it.
func (s *CatalogService[T]) Delete(ctx context.Context, act actor.Actor, entityID id.ID) error {
	item, err := s.repo.GetByID(ctx, act.TenantID, entityID)
	if err != nil {
		return s.normalizeGetErr(err, entityID.String())
	}

	if err := s.hooks.Run(ctx, BeforeDelete, item); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, act.TenantID, entityID, true); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterDelete, item); err != nil {
		logger.Warn(ctx, "after hook failed", "entity", s.entityName, "event", AfterDelete, "error", err)
	}
	return nil
}

// SetDeletionMark sets or clears the deletion mark without hooks.
func (s *CatalogService[T]) SetDeletionMark(ctx context.Context, act actor.Actor, entityID id.ID, marked bool) error {
	return s.repo.SetDeletionMark(ctx, act.TenantID, entityID, marked)
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, act actor.Actor, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, act.TenantID, filter)
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, act actor.Actor, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, act.TenantID, entityID)
}

package goodsreceipt

import (
	"context"
	"fmt"
	"time"

	"mise/internal/core/actor"
	"mise/internal/core/id"
	"mise/internal/core/numerator"
	"mise/internal/core/tx"
	"mise/internal/core/types"
	"mise/internal/core/workflow"
	"mise/internal/domain"
	"mise/internal/domain/posting"
	"mise/pkg/logger"
)

// Service provides business operations for goods receipts.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	numerator     numerator.Generator
	txManager     tx.Manager
	hooks         *domain.HookRegistry[*GoodsReceipt]
}

// NewService creates a new goods receipt service.
func NewService(
	repo Repository,
	postingEngine *posting.Engine,
	numGen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:          repo,
		postingEngine: postingEngine,
		numerator:     numGen,
		txManager:     txManager,
		hooks:         domain.NewHookRegistry[*GoodsReceipt](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*GoodsReceipt] {
	return s.hooks
}

// Create creates a new goods receipt.
func (s *Service) Create(ctx context.Context, act actor.Actor, doc *GoodsReceipt) error {
	if err := act.Validate(); err != nil {
		return err
	}
	doc.TenantID = act.TenantID
	doc.CreatedBy = act.UserID
	doc.UpdatedBy = act.UserID

	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, act.TenantID, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "goods receipt created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a goods receipt with lines.
func (s *Service) GetByID(ctx context.Context, act actor.Actor, docID id.ID) (*GoodsReceipt, error) {
	doc, err := s.repo.GetByID(ctx, act.TenantID, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, act.TenantID, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// AddLine adds a delivered product to an unposted receipt.
func (s *Service) AddLine(ctx context.Context, act actor.Actor, docID, productID id.ID, qty types.Quantity, unitCost types.Money, lotID *id.ID) (*GoodsReceipt, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
		return nil, err
	}

	if _, err := doc.AddLine(productID, qty, unitCost, lotID); err != nil {
		return nil, err
	}
	doc.UpdatedBy = act.UserID

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.repo.SaveLines(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Post moves a created receipt to posted, writing one receipt entry per
// line with its unit cost.
func (s *Service) Post(ctx context.Context, act actor.Actor, docID id.ID) (*GoodsReceipt, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
		return nil, err
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.BeforePost, doc); err != nil {
		return nil, err
	}

	doc.UpdatedBy = act.UserID
	updateDoc := func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	}

	if err := s.postingEngine.Post(ctx, doc, s.repo, workflow.StatusPosted, updateDoc); err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterPost, doc); err != nil {
		logger.Warn(ctx, "after-post hook failed", "error", err)
	}

	return doc, nil
}

// List retrieves goods receipts with filtering.
func (s *Service) List(ctx context.Context, act actor.Actor, filter ListFilter) (domain.ListResult[*GoodsReceipt], error) {
	return s.repo.List(ctx, act.TenantID, filter)
}

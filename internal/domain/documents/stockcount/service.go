package stockcount

import (
	"context"
	"fmt"
	"time"

	"mise/internal/core/actor"
	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/numerator"
	"mise/internal/core/tx"
	"mise/internal/core/types"
	"mise/internal/core/workflow"
	"mise/internal/domain"
	"mise/internal/domain/ledger"
	"mise/internal/domain/posting"
	"mise/pkg/logger"
)

// Service provides business operations for stock count documents.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	ledgerService *ledger.Service
	numerator     numerator.Generator
	txManager     tx.Manager
	hooks         *domain.HookRegistry[*StockCount]
}

// NewService creates a new stock count service.
func NewService(
	repo Repository,
	postingEngine *posting.Engine,
	ledgerService *ledger.Service,
	numGen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:          repo,
		postingEngine: postingEngine,
		ledgerService: ledgerService,
		numerator:     numGen,
		txManager:     txManager,
		hooks:         domain.NewHookRegistry[*StockCount](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*StockCount] {
	return s.hooks
}

// Create creates a new draft stock count.
func (s *Service) Create(ctx context.Context, act actor.Actor, doc *StockCount) error {
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

	logger.Info(ctx, "stock count created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a stock count with lines.
func (s *Service) GetByID(ctx context.Context, act actor.Actor, docID id.ID) (*StockCount, error) {
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

// AddLine adds a product, optionally narrowed to one lot, to a draft
// stock count. The ledger on-hand is snapshotted onto the line here.
func (s *Service) AddLine(ctx context.Context, act actor.Actor, docID, productID id.ID, lotID *id.ID) (*StockCount, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
		return nil, err
	}

	systemQty, err := s.ledgerService.OnHand(ctx, ledger.Key{
		TenantID:   act.TenantID,
		LocationID: doc.LocationID,
		ProductID:  productID,
		LotID:      lotID,
	})
	if err != nil {
		return nil, fmt.Errorf("read system quantity: %w", err)
	}

	if _, err := doc.AddLine(productID, lotID, systemQty); err != nil {
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

// RecordCount stores the counted quantity for a line of a draft document.
func (s *Service) RecordCount(ctx context.Context, act actor.Actor, docID id.ID, lineNo int, qty types.Quantity) (*StockCount, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
		return nil, err
	}

	if err := doc.RecordCount(lineNo, qty, act.UserID); err != nil {
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

// SubmitForReview moves a draft into review. System quantities are read
// from the ledger once, variances computed and frozen in the same
// transaction; ledger movement after this point does not shift them.
func (s *Service) SubmitForReview(ctx context.Context, act actor.Actor, docID id.ID) (*StockCount, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
		return nil, err
	}

	table := workflow.ForKind(doc.Kind())
	if err := table.CanTransition(doc.Status, workflow.StatusReview); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.StatusForUpdate(ctx, act.TenantID, docID)
		if err != nil {
			return fmt.Errorf("lock document status: %w", err)
		}
		if current != doc.Status {
			return apperror.NewPreconditionFailed(
				fmt.Sprintf("document status changed from %s to %s", doc.Status, current),
			).WithDetail("document_id", docID.String())
		}

		systemQty, err := s.systemQuantities(ctx, act.TenantID, doc)
		if err != nil {
			return fmt.Errorf("read system quantities: %w", err)
		}

		if err := doc.Freeze(systemQty); err != nil {
			return err
		}

		doc.SetStatus(workflow.StatusReview)
		doc.UpdatedBy = act.UserID

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.repo.SaveLines(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock count submitted for review", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// systemQuantities reads the current on-hand for every line, keyed by
// line number. Lot-less lines are resolved in one grouped query; lines
// naming a lot need a per-lot sum each.
func (s *Service) systemQuantities(ctx context.Context, tenantID id.ID, doc *StockCount) (map[int]types.Quantity, error) {
	result := make(map[int]types.Quantity, len(doc.Lines))

	unlotted := make([]id.ID, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		if line.LotID == nil {
			unlotted = append(unlotted, line.ProductID)
		}
	}

	byProduct, err := s.ledgerService.OnHandByProducts(ctx, tenantID, doc.LocationID, unlotted)
	if err != nil {
		return nil, err
	}

	for _, line := range doc.Lines {
		if line.LotID == nil {
			result[line.LineNo] = byProduct[line.ProductID]
			continue
		}
		qty, err := s.ledgerService.OnHand(ctx, ledger.Key{
			TenantID:   tenantID,
			LocationID: doc.LocationID,
			ProductID:  line.ProductID,
			LotID:      line.LotID,
		})
		if err != nil {
			return nil, err
		}
		result[line.LineNo] = qty
	}

	return result, nil
}

// Post moves a reviewed document to posted, writing one adjustment entry
// per non-zero frozen variance. An all-zero count does not post.
func (s *Service) Post(ctx context.Context, act actor.Actor, docID id.ID) (*StockCount, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
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

// List retrieves stock counts with filtering.
func (s *Service) List(ctx context.Context, act actor.Actor, filter ListFilter) (domain.ListResult[*StockCount], error) {
	return s.repo.List(ctx, act.TenantID, filter)
}

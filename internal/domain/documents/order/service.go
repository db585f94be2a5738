package order

import (
	"context"
	"fmt"
	"time"

	"mise/internal/core/actor"
	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/numerator"
	"mise/internal/core/security"
	"mise/internal/core/tx"
	"mise/internal/core/types"
	"mise/internal/core/workflow"
	"mise/internal/domain"
	"mise/internal/domain/ledger"
	"mise/internal/domain/posting"
	"mise/pkg/logger"
)

// Service provides business operations for orders.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	ledgerService *ledger.Service
	numerator     numerator.Generator
	txManager     tx.Manager
	flags         security.FeatureFlagProvider
	hooks         *domain.HookRegistry[*Order]
}

// NewService creates a new order service.
func NewService(
	repo Repository,
	postingEngine *posting.Engine,
	ledgerService *ledger.Service,
	numGen numerator.Generator,
	txManager tx.Manager,
	flags security.FeatureFlagProvider,
) *Service {
	return &Service{
		repo:          repo,
		postingEngine: postingEngine,
		ledgerService: ledgerService,
		numerator:     numGen,
		txManager:     txManager,
		flags:         flags,
		hooks:         domain.NewHookRegistry[*Order](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Order] {
	return s.hooks
}

// Create creates a new open order.
func (s *Service) Create(ctx context.Context, act actor.Actor, doc *Order) error {
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
		if err := s.repo.SaveItems(ctx, doc); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "order created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an order with items.
func (s *Service) GetByID(ctx context.Context, act actor.Actor, docID id.ID) (*Order, error) {
	doc, err := s.repo.GetByID(ctx, act.TenantID, docID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, act.TenantID, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	return doc, nil
}

// AddItem adds a product to an open order.
func (s *Service) AddItem(ctx context.Context, act actor.Actor, docID, productID id.ID, qty types.Quantity, unitPrice types.Money) (*Order, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
		return nil, err
	}

	if _, err := doc.AddItem(productID, qty, unitPrice); err != nil {
		return nil, err
	}
	doc.UpdatedBy = act.UserID

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.repo.SaveItems(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Post moves an open order to posted, issuing stock for every
// non-cancelled item. Availability is not checked: a sold dish is sold,
// the ledger may go negative and the next stock count reconciles it.
func (s *Service) Post(ctx context.Context, act actor.Actor, docID id.ID) (*Order, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.BeforePost, doc); err != nil {
		return nil, err
	}

	if s.flags.IsEnabled(ctx, security.FlagLotAllocationFEFO) {
		// Lot-aware allocation is not wired yet; issues stay unlotted.
		logger.Warn(ctx, "fefo lot allocation flag is on but not implemented, posting unlotted",
			"order_id", doc.ID)
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

// Void cancels an order. An open order flips to voided without touching
// the ledger. A posted order writes one issue reversal per original
// issue, restoring the stock it consumed.
func (s *Service) Void(ctx context.Context, act actor.Actor, docID id.ID) (*Order, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.BeforeVoid, doc); err != nil {
		return nil, err
	}

	from := doc.Status
	switch doc.Status {
	case workflow.StatusOpen:
		err = s.voidOpen(ctx, act, doc)
	case workflow.StatusPosted:
		err = s.voidPosted(ctx, act, doc)
	default:
		err = workflow.ForKind(doc.Kind()).CanTransition(doc.Status, workflow.StatusVoided)
	}
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterVoid, doc); err != nil {
		logger.Warn(ctx, "after-void hook failed", "error", err)
	}

	logger.Info(ctx, "order voided", "id", doc.ID, "from", from)
	return doc, nil
}

// voidOpen flips an unposted order; no entries were written, none to reverse.
func (s *Service) voidOpen(ctx context.Context, act actor.Actor, doc *Order) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.StatusForUpdate(ctx, act.TenantID, doc.ID)
		if err != nil {
			return fmt.Errorf("lock document status: %w", err)
		}
		if current != workflow.StatusOpen {
			return apperror.NewPreconditionFailed(
				fmt.Sprintf("document status changed from open to %s", current),
			).WithDetail("document_id", doc.ID.String())
		}

		doc.SetStatus(workflow.StatusVoided)
		doc.UpdatedBy = act.UserID
		return s.repo.Update(ctx, doc)
	})
}

// voidPosted compensates the original issues through the posting engine.
func (s *Service) voidPosted(ctx context.Context, act actor.Actor, doc *Order) error {
	original, err := s.ledgerService.EntriesForRef(ctx, act.TenantID, ledger.RefOrder, doc.ID)
	if err != nil {
		return fmt.Errorf("load original entries: %w", err)
	}

	base := make([]ledger.Entry, 0, len(original))
	for _, e := range original {
		if e.Type == ledger.TypeIssue {
			base = append(base, e)
		}
	}
	doc.SetReversalBase(base)
	doc.UpdatedBy = act.UserID

	updateDoc := func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	}
	return s.postingEngine.Post(ctx, doc, s.repo, workflow.StatusVoided, updateDoc)
}

// SetItemStatus moves one item through the kitchen and persists the
// re-derived order prep status.
func (s *Service) SetItemStatus(ctx context.Context, act actor.Actor, docID id.ID, lineNo int, to workflow.ItemPrepStatus) (*Order, error) {
	doc, err := s.GetByID(ctx, act, docID)
	if err != nil {
		return nil, err
	}

	if doc.IsVoided() {
		return nil, apperror.NewDocumentLocked(string(doc.Kind()), string(doc.Status))
	}

	if err := doc.SetItemPrep(lineNo, to); err != nil {
		return nil, err
	}
	doc.UpdatedBy = act.UserID

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.repo.SaveItems(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// List retrieves orders with filtering.
func (s *Service) List(ctx context.Context, act actor.Actor, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, act.TenantID, filter)
}

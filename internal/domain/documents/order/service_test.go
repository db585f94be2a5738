package order

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu    sync.Mutex
	docs  map[id.ID]Order
	items map[id.ID][]Item
}

func newMemRepo() *memRepo {
	return &memRepo{
		docs:  make(map[id.ID]Order),
		items: make(map[id.ID][]Item),
	}
}

func (r *memRepo) Create(ctx context.Context, doc *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, tenantID, docID id.ID) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return nil, apperror.NewNotFound("Order", docID.String())
	}
	copied := doc
	return &copied, nil
}

func (r *memRepo) Update(ctx context.Context, doc *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("Order", doc.ID.String())
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) GetItems(ctx context.Context, tenantID, docID id.ID) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Item(nil), r.items[docID]...), nil
}

func (r *memRepo) SaveItems(ctx context.Context, doc *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[doc.ID] = append([]Item(nil), doc.Items...)
	return nil
}

func (r *memRepo) List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*Order], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*Order
	for docID := range r.docs {
		doc := r.docs[docID]
		if doc.TenantID == tenantID {
			copied := doc
			items = append(items, &copied)
		}
	}
	return domain.ListResult[*Order]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memRepo) StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return "", apperror.NewNotFound("Order", docID.String())
	}
	return doc.Status, nil
}

var _ Repository = (*memRepo)(nil)

type fixture struct {
	svc        *Service
	ledgerRepo *ledger.MemoryRepository
	ledgerSvc  *ledger.Service
	flags      *security.InMemoryFlags
	act        actor.Actor
	locationID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledgerRepo := ledger.NewMemoryRepository()
	ledgerSvc := ledger.NewService(ledgerRepo)
	txm := &tx.MockManager{}
	engine := posting.NewEngine(ledgerSvc, txm)
	flags := security.NewInMemoryFlags()

	return &fixture{
		svc:        NewService(newMemRepo(), engine, ledgerSvc, &numerator.MockGenerator{}, txm, flags),
		ledgerRepo: ledgerRepo,
		ledgerSvc:  ledgerSvc,
		flags:      flags,
		act:        actor.Actor{TenantID: id.New(), UserID: "waiter"},
		locationID: id.New(),
	}
}

func (f *fixture) seedOnHand(t *testing.T, productID id.ID, qty string) {
	t.Helper()
	e := ledger.NewEntry(f.act.TenantID, f.locationID, productID, ledger.TypeReceipt, types.MustQuantity(qty))
	e.RefType = ledger.RefGoodsReceipt
	e.RefID = id.New()
	e.CreatedBy = "seed"
	require.NoError(t, f.ledgerSvc.Record(context.Background(), []ledger.Entry{e}))
}

func (f *fixture) onHand(t *testing.T, productID id.ID) types.Quantity {
	t.Helper()
	qty, err := f.ledgerSvc.OnHand(context.Background(), ledger.Key{
		TenantID:   f.act.TenantID,
		LocationID: f.locationID,
		ProductID:  productID,
	})
	require.NoError(t, err)
	return qty
}

func (f *fixture) createWithItem(t *testing.T, productID id.ID, qty, price string) *Order {
	t.Helper()
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	doc, err := f.svc.AddItem(ctx, f.act, doc.ID, productID, types.MustQuantity(qty), types.MustMoney(price))
	require.NoError(t, err)
	return doc
}

func TestPostIssuesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "10")

	doc := f.createWithItem(t, productID, "2", "4.50")

	doc, err := f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPosted, doc.Status)

	assert.Equal(t, types.MustQuantity("8"), f.onHand(t, productID))

	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefOrder, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.TypeIssue, entries[0].Type)
	assert.Equal(t, types.MustQuantity("-2"), entries[0].QtyDelta)
	assert.Nil(t, entries[0].LotID)
}

func TestVoidPostedOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "10")

	doc := f.createWithItem(t, productID, "3", "5.00")

	doc, err := f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("7"), f.onHand(t, productID))

	doc, err = f.svc.Void(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusVoided, doc.Status)

	// Back to 10, through a reversal entry rather than deletion.
	assert.Equal(t, types.MustQuantity("10"), f.onHand(t, productID))

	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefOrder, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var reversals int
	for _, e := range entries {
		if e.Type == ledger.TypeIssueReversal {
			reversals++
			assert.Equal(t, types.MustQuantity("3"), e.QtyDelta)
		}
	}
	assert.Equal(t, 1, reversals)
}

func TestVoidOpenOrderWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()

	doc := f.createWithItem(t, productID, "1", "2.00")

	doc, err := f.svc.Void(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusVoided, doc.Status)
	assert.Equal(t, 0, f.ledgerRepo.Count())
}

func TestVoidVoidedOrderFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.createWithItem(t, id.New(), "1", "2.00")
	_, err := f.svc.Void(ctx, f.act, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.Void(ctx, f.act, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestPostEmptyOrderFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	_, err := f.svc.Post(ctx, f.act, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsEmptyPosting(err))
}

func TestCancelledItemsDoNotIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kept := id.New()
	cancelled := id.New()
	f.seedOnHand(t, kept, "5")
	f.seedOnHand(t, cancelled, "5")

	doc := f.createWithItem(t, kept, "1", "3.00")
	doc, err := f.svc.AddItem(ctx, f.act, doc.ID, cancelled, types.MustQuantity("1"), types.MustMoney("3.00"))
	require.NoError(t, err)

	doc, err = f.svc.SetItemStatus(ctx, f.act, doc.ID, 2, workflow.ItemCancelled)
	require.NoError(t, err)

	doc, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)

	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefOrder, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, kept, entries[0].ProductID)
	assert.Equal(t, types.MustQuantity("5"), f.onHand(t, cancelled))
}

func TestAddItemToPostedOrderIsLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "5")

	doc := f.createWithItem(t, productID, "1", "3.00")
	doc, err := f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.act, doc.ID, id.New(), types.MustQuantity("1"), types.MustMoney("1.00"))
	require.Error(t, err)
	assert.True(t, apperror.IsDocumentLocked(err))
}

func TestDoublePostSecondFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "5")

	doc := f.createWithItem(t, productID, "1", "3.00")

	_, err := f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, f.act, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))

	// Only the first post issued stock.
	assert.Equal(t, types.MustQuantity("4"), f.onHand(t, productID))
}

func TestSingleItemKitchenLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.createWithItem(t, id.New(), "1", "9.00")
	assert.Equal(t, workflow.PrepOpen, doc.PrepStatus)

	doc, err := f.svc.SetItemStatus(ctx, f.act, doc.ID, 1, workflow.ItemPreparing)
	require.NoError(t, err)
	assert.Equal(t, workflow.PrepPreparing, doc.PrepStatus)

	doc, err = f.svc.SetItemStatus(ctx, f.act, doc.ID, 1, workflow.ItemReady)
	require.NoError(t, err)
	assert.Equal(t, workflow.PrepReady, doc.PrepStatus)

	doc, err = f.svc.SetItemStatus(ctx, f.act, doc.ID, 1, workflow.ItemServed)
	require.NoError(t, err)
	assert.Equal(t, workflow.PrepServed, doc.PrepStatus)
}

func TestItemCannotSkipPreparing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.createWithItem(t, id.New(), "1", "9.00")

	_, err := f.svc.SetItemStatus(ctx, f.act, doc.ID, 1, workflow.ItemReady)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestTotalSumsItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.createWithItem(t, id.New(), "2", "4.50")
	doc, err := f.svc.AddItem(ctx, f.act, doc.ID, id.New(), types.MustQuantity("1"), types.MustMoney("3.25"))
	require.NoError(t, err)

	assert.True(t, doc.Total().Equal(types.MustMoney("12.25")))
}

func TestFefoFlagDoesNotChangePosting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "5")
	f.flags.SetFlag(security.FlagLotAllocationFEFO, true)

	doc := f.createWithItem(t, productID, "1", "3.00")
	doc, err := f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)

	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefOrder, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].LotID)
}

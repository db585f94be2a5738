package goodsreceipt

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
	"mise/internal/core/tx"
	"mise/internal/core/types"
	"mise/internal/core/workflow"
	"mise/internal/domain"
	"mise/internal/domain/ledger"
	"mise/internal/domain/posting"
)

type memRepo struct {
	mu    sync.Mutex
	docs  map[id.ID]GoodsReceipt
	lines map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{
		docs:  make(map[id.ID]GoodsReceipt),
		lines: make(map[id.ID][]Line),
	}
}

func (r *memRepo) Create(ctx context.Context, doc *GoodsReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, tenantID, docID id.ID) (*GoodsReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return nil, apperror.NewNotFound("GoodsReceipt", docID.String())
	}
	copied := doc
	return &copied, nil
}

func (r *memRepo) Update(ctx context.Context, doc *GoodsReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("GoodsReceipt", doc.ID.String())
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) GetLines(ctx context.Context, tenantID, docID id.ID) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *memRepo) SaveLines(ctx context.Context, doc *GoodsReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[doc.ID] = append([]Line(nil), doc.Lines...)
	return nil
}

func (r *memRepo) List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*GoodsReceipt], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*GoodsReceipt
	for docID := range r.docs {
		doc := r.docs[docID]
		if doc.TenantID == tenantID {
			copied := doc
			items = append(items, &copied)
		}
	}
	return domain.ListResult[*GoodsReceipt]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memRepo) StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return "", apperror.NewNotFound("GoodsReceipt", docID.String())
	}
	return doc.Status, nil
}

var _ Repository = (*memRepo)(nil)

type fixture struct {
	svc        *Service
	ledgerSvc  *ledger.Service
	act        actor.Actor
	locationID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledgerSvc := ledger.NewService(ledger.NewMemoryRepository())
	txm := &tx.MockManager{}

	return &fixture{
		svc:        NewService(newMemRepo(), posting.NewEngine(ledgerSvc, txm), &numerator.MockGenerator{}, txm),
		ledgerSvc:  ledgerSvc,
		act:        actor.Actor{TenantID: id.New(), UserID: "receiver"},
		locationID: id.New(),
	}
}

func TestPostWritesReceiptEntriesWithCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	lotID := id.New()

	doc := New(f.act.TenantID, f.locationID)
	doc.SupplierRef = "ACME-4711"
	require.NoError(t, f.svc.Create(ctx, f.act, doc))
	assert.Equal(t, workflow.StatusCreated, doc.Status)

	doc, err := f.svc.AddLine(ctx, f.act, doc.ID, productID, types.MustQuantity("12"), types.MustMoney("2.40"), &lotID)
	require.NoError(t, err)

	doc, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPosted, doc.Status)

	qty, err := f.ledgerSvc.OnHand(ctx, ledger.Key{
		TenantID:   f.act.TenantID,
		LocationID: f.locationID,
		ProductID:  productID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("12"), qty)

	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefGoodsReceipt, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.TypeReceipt, entries[0].Type)
	require.NotNil(t, entries[0].UnitCost)
	assert.True(t, entries[0].UnitCost.Equal(types.MustMoney("2.40")))
	require.NotNil(t, entries[0].LotID)
	assert.Equal(t, lotID, *entries[0].LotID)
}

func TestEmptyReceiptCannotPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	_, err := f.svc.Post(ctx, f.act, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsEmptyPosting(err))
}

func TestPostedReceiptIsLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))
	_, err := f.svc.AddLine(ctx, f.act, doc.ID, id.New(), types.MustQuantity("1"), types.MustMoney("1.00"), nil)
	require.NoError(t, err)
	doc, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.AddLine(ctx, f.act, doc.ID, id.New(), types.MustQuantity("1"), types.MustMoney("1.00"), nil)
	require.Error(t, err)
	assert.True(t, apperror.IsDocumentLocked(err))
}

func TestTotalCost(t *testing.T) {
	doc := New(id.New(), id.New())
	_, err := doc.AddLine(id.New(), types.MustQuantity("2"), types.MustMoney("3.50"), nil)
	require.NoError(t, err)
	_, err = doc.AddLine(id.New(), types.MustQuantity("0.5"), types.MustMoney("10.00"), nil)
	require.NoError(t, err)

	assert.True(t, doc.TotalCost().Equal(types.MustMoney("12.00")))
}

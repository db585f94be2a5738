package waste

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
	docs  map[id.ID]WasteRecord
	lines map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{
		docs:  make(map[id.ID]WasteRecord),
		lines: make(map[id.ID][]Line),
	}
}

func (r *memRepo) Create(ctx context.Context, doc *WasteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, tenantID, docID id.ID) (*WasteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return nil, apperror.NewNotFound("WasteRecord", docID.String())
	}
	copied := doc
	return &copied, nil
}

func (r *memRepo) Update(ctx context.Context, doc *WasteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("WasteRecord", doc.ID.String())
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) GetLines(ctx context.Context, tenantID, docID id.ID) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *memRepo) SaveLines(ctx context.Context, doc *WasteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[doc.ID] = append([]Line(nil), doc.Lines...)
	return nil
}

func (r *memRepo) List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*WasteRecord], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*WasteRecord
	for docID := range r.docs {
		doc := r.docs[docID]
		if doc.TenantID == tenantID {
			copied := doc
			items = append(items, &copied)
		}
	}
	return domain.ListResult[*WasteRecord]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memRepo) StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return "", apperror.NewNotFound("WasteRecord", docID.String())
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
		act:        actor.Actor{TenantID: id.New(), UserID: "manager"},
		locationID: id.New(),
	}
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

func TestApprovedWastePostsNegativeAdjustments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()

	doc := New(f.act.TenantID, f.locationID, "spoilage")
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	doc, err := f.svc.AddLine(ctx, f.act, doc.ID, productID, types.MustQuantity("1.5"), "dropped tray")
	require.NoError(t, err)

	doc, err = f.svc.Approve(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "manager", doc.ApprovedBy)

	doc, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPosted, doc.Status)

	assert.Equal(t, types.MustQuantity("-1.5"), f.onHand(t, productID))

	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefWasteRecord, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.TypeAdjustment, entries[0].Type)
	assert.Equal(t, "dropped tray", entries[0].Note)
}

func TestUnapprovedWasteCannotPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID, "breakage")
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	_, err := f.svc.AddLine(ctx, f.act, doc.ID, id.New(), types.MustQuantity("1"), "")
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, f.act, doc.ID)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestEmptyWasteCannotPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID, "spoilage")
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	_, err := f.svc.Approve(ctx, f.act, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, f.act, doc.ID)
	require.Error(t, err)
}

func TestPostedWasteIsLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID, "spoilage")
	require.NoError(t, f.svc.Create(ctx, f.act, doc))
	_, err := f.svc.AddLine(ctx, f.act, doc.ID, id.New(), types.MustQuantity("1"), "")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.act, doc.ID)
	require.NoError(t, err)
	doc, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.AddLine(ctx, f.act, doc.ID, id.New(), types.MustQuantity("1"), "")
	require.Error(t, err)
	assert.True(t, apperror.IsDocumentLocked(err))

	_, err = f.svc.Post(ctx, f.act, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestZeroQuantityLineRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID, "spoilage")
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	_, err := f.svc.AddLine(ctx, f.act, doc.ID, id.New(), types.MustQuantity("0"), "")
	require.Error(t, err)
}

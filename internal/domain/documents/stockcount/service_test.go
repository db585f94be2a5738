package stockcount

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

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu    sync.Mutex
	docs  map[id.ID]StockCount
	lines map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{
		docs:  make(map[id.ID]StockCount),
		lines: make(map[id.ID][]Line),
	}
}

func (r *memRepo) Create(ctx context.Context, doc *StockCount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, tenantID, docID id.ID) (*StockCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return nil, apperror.NewNotFound("StockCount", docID.String())
	}
	copied := doc
	return &copied, nil
}

func (r *memRepo) Update(ctx context.Context, doc *StockCount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("StockCount", doc.ID.String())
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memRepo) GetLines(ctx context.Context, tenantID, docID id.ID) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *memRepo) SaveLines(ctx context.Context, doc *StockCount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[doc.ID] = append([]Line(nil), doc.Lines...)
	return nil
}

func (r *memRepo) List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*StockCount], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*StockCount
	for docID := range r.docs {
		doc := r.docs[docID]
		if doc.TenantID == tenantID {
			copied := doc
			items = append(items, &copied)
		}
	}
	return domain.ListResult[*StockCount]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memRepo) StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return "", apperror.NewNotFound("StockCount", docID.String())
	}
	return doc.Status, nil
}

var _ Repository = (*memRepo)(nil)

type fixture struct {
	svc        *Service
	ledgerRepo *ledger.MemoryRepository
	ledgerSvc  *ledger.Service
	act        actor.Actor
	locationID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledgerRepo := ledger.NewMemoryRepository()
	ledgerSvc := ledger.NewService(ledgerRepo)
	txm := &tx.MockManager{}
	engine := posting.NewEngine(ledgerSvc, txm)

	return &fixture{
		svc:        NewService(newMemRepo(), engine, ledgerSvc, &numerator.MockGenerator{}, txm),
		ledgerRepo: ledgerRepo,
		ledgerSvc:  ledgerSvc,
		act:        actor.Actor{TenantID: id.New(), UserID: "counter"},
		locationID: id.New(),
	}
}

// seedOnHand writes a receipt so the product has ledger history.
func (f *fixture) seedOnHand(t *testing.T, productID id.ID, qty string) {
	t.Helper()
	f.seedLot(t, productID, nil, qty)
}

func (f *fixture) seedLot(t *testing.T, productID id.ID, lotID *id.ID, qty string) {
	t.Helper()
	e := ledger.NewEntry(f.act.TenantID, f.locationID, productID, ledger.TypeReceipt, types.MustQuantity(qty))
	e.LotID = lotID
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

func (f *fixture) createCounted(t *testing.T, products map[id.ID]string) *StockCount {
	t.Helper()
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	for productID, counted := range products {
		var err error
		doc, err = f.svc.AddLine(ctx, f.act, doc.ID, productID, nil)
		require.NoError(t, err)
		lineNo := doc.Lines[len(doc.Lines)-1].LineNo
		doc, err = f.svc.RecordCount(ctx, f.act, doc.ID, lineNo, types.MustQuantity(counted))
		require.NoError(t, err)
	}
	return doc
}

func TestCountShortagePostsNegativeAdjustment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "10")

	doc := f.createCounted(t, map[id.ID]string{productID: "8"})

	doc, err := f.svc.SubmitForReview(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReview, doc.Status)
	assert.Equal(t, types.MustQuantity("10"), doc.Lines[0].SystemQty)
	assert.Equal(t, types.MustQuantity("-2"), doc.Lines[0].Variance)

	doc, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPosted, doc.Status)

	assert.Equal(t, types.MustQuantity("8"), f.onHand(t, productID))

	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefStockCount, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.TypeAdjustment, entries[0].Type)
	assert.Equal(t, types.MustQuantity("-2"), entries[0].QtyDelta)
}

func TestZeroVarianceLinesAreExcluded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	matched := id.New()
	short := id.New()
	f.seedOnHand(t, matched, "5")
	f.seedOnHand(t, short, "5")

	doc := f.createCounted(t, map[id.ID]string{matched: "5", short: "4"})

	doc, err := f.svc.SubmitForReview(ctx, f.act, doc.ID)
	require.NoError(t, err)

	doc, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)

	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefStockCount, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, short, entries[0].ProductID)
}

func TestAllZeroVariancesCannotPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "7")

	doc := f.createCounted(t, map[id.ID]string{productID: "7"})

	doc, err := f.svc.SubmitForReview(ctx, f.act, doc.ID)
	require.NoError(t, err)

	before := f.ledgerRepo.Count()
	_, err = f.svc.Post(ctx, f.act, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsEmptyPosting(err))
	assert.Equal(t, before, f.ledgerRepo.Count())

	// Document stays in review after the failed post.
	current, err := f.svc.GetByID(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReview, current.Status)
}

func TestVarianceFrozenAtReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "10")

	doc := f.createCounted(t, map[id.ID]string{productID: "9"})

	doc, err := f.svc.SubmitForReview(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("-1"), doc.Lines[0].Variance)

	// Stock moves after review; the frozen variance must not shift.
	f.seedOnHand(t, productID, "3")

	doc, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)

	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefStockCount, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.MustQuantity("-1"), entries[0].QtyDelta)

	// 10 + 3 - 1 frozen adjustment
	assert.Equal(t, types.MustQuantity("12"), f.onHand(t, productID))
}

func TestCountingNeverSeenProductTreatsSystemAsZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New() // no ledger history

	doc := f.createCounted(t, map[id.ID]string{productID: "4"})

	doc, err := f.svc.SubmitForReview(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.True(t, doc.Lines[0].SystemQty.IsZero())
	assert.Equal(t, types.MustQuantity("4"), doc.Lines[0].Variance)

	_, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("4"), f.onHand(t, productID))
}

func TestAddLineSnapshotsSystemQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "10")

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	// The on-hand snapshot lands on the line at add time, before review.
	doc, err := f.svc.AddLine(ctx, f.act, doc.ID, productID, nil)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("10"), doc.Lines[0].SystemQty)

	// Recording a count updates the draft variance against that snapshot.
	doc, err = f.svc.RecordCount(ctx, f.act, doc.ID, 1, types.MustQuantity("8"))
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("-2"), doc.Lines[0].Variance)
}

func TestDraftVarianceTracksSnapshotNotLiveLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "10")

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))
	doc, err := f.svc.AddLine(ctx, f.act, doc.ID, productID, nil)
	require.NoError(t, err)

	// Stock moves after the line was added; the draft keeps the add-time
	// snapshot, review re-reads.
	f.seedOnHand(t, productID, "5")

	doc, err = f.svc.RecordCount(ctx, f.act, doc.ID, 1, types.MustQuantity("12"))
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("10"), doc.Lines[0].SystemQty)
	assert.Equal(t, types.MustQuantity("2"), doc.Lines[0].Variance)

	doc, err = f.svc.SubmitForReview(ctx, f.act, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("15"), doc.Lines[0].SystemQty)
	assert.Equal(t, types.MustQuantity("-3"), doc.Lines[0].Variance)
}

func TestPerLotLinesCountAgainstLotBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	lotA := id.New()
	lotB := id.New()
	f.seedLot(t, productID, &lotA, "6")
	f.seedLot(t, productID, &lotB, "3")

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	doc, err := f.svc.AddLine(ctx, f.act, doc.ID, productID, &lotA)
	require.NoError(t, err)
	doc, err = f.svc.AddLine(ctx, f.act, doc.ID, productID, &lotB)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("6"), doc.Lines[0].SystemQty)
	assert.Equal(t, types.MustQuantity("3"), doc.Lines[1].SystemQty)

	// The same lot cannot appear twice.
	_, err = f.svc.AddLine(ctx, f.act, doc.ID, productID, &lotA)
	require.Error(t, err)

	doc, err = f.svc.RecordCount(ctx, f.act, doc.ID, 1, types.MustQuantity("5"))
	require.NoError(t, err)
	doc, err = f.svc.RecordCount(ctx, f.act, doc.ID, 2, types.MustQuantity("3"))
	require.NoError(t, err)

	doc, err = f.svc.SubmitForReview(ctx, f.act, doc.ID)
	require.NoError(t, err)
	doc, err = f.svc.Post(ctx, f.act, doc.ID)
	require.NoError(t, err)

	// Only the short lot gets an adjustment, tagged with its lot.
	entries, err := f.ledgerSvc.EntriesForRef(ctx, f.act.TenantID, ledger.RefStockCount, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].LotID)
	assert.Equal(t, lotA, *entries[0].LotID)
	assert.Equal(t, types.MustQuantity("-1"), entries[0].QtyDelta)

	lotQty, err := f.ledgerSvc.OnHand(ctx, ledger.Key{
		TenantID:   f.act.TenantID,
		LocationID: f.locationID,
		ProductID:  productID,
		LotID:      &lotA,
	})
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("5"), lotQty)
}

func TestRecordCountAfterReviewIsLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "2")

	doc := f.createCounted(t, map[id.ID]string{productID: "2"})

	doc, err := f.svc.SubmitForReview(ctx, f.act, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.RecordCount(ctx, f.act, doc.ID, 1, types.MustQuantity("5"))
	require.Error(t, err)
	assert.True(t, apperror.IsDocumentLocked(err))

	_, err = f.svc.AddLine(ctx, f.act, doc.ID, id.New(), nil)
	require.Error(t, err)
	assert.True(t, apperror.IsDocumentLocked(err))
}

func TestCannotPostFromDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()
	f.seedOnHand(t, productID, "2")

	doc := f.createCounted(t, map[id.ID]string{productID: "1"})

	_, err := f.svc.Post(ctx, f.act, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestSubmitRequiresAllLinesCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))
	_, err := f.svc.AddLine(ctx, f.act, doc.ID, id.New(), nil)
	require.NoError(t, err)

	_, err = f.svc.SubmitForReview(ctx, f.act, doc.ID)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestDuplicateProductLineRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := id.New()

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	_, err := f.svc.AddLine(ctx, f.act, doc.ID, productID, nil)
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, f.act, doc.ID, productID, nil)
	require.Error(t, err)
}

func TestOtherTenantCannotSeeDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := New(f.act.TenantID, f.locationID)
	require.NoError(t, f.svc.Create(ctx, f.act, doc))

	other := actor.Actor{TenantID: id.New(), UserID: "intruder"}
	_, err := f.svc.GetByID(ctx, other, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

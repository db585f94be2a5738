package posting

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/tx"
	"mise/internal/core/types"
	"mise/internal/core/workflow"
	"mise/internal/domain/ledger"
)

// testDoc is a minimal Postable for engine tests.
type testDoc struct {
	entity.Document
	kind    workflow.Kind
	entries []ledger.Entry
	genErr  error
}

func (d *testDoc) Kind() workflow.Kind { return d.kind }

func (d *testDoc) GenerateEntries(ctx context.Context, to workflow.Status) ([]ledger.Entry, error) {
	return d.entries, d.genErr
}

// statusStore fakes the row-locked status read and the document update.
type statusStore struct {
	mu     sync.Mutex
	status workflow.Status
	err    error
}

func (s *statusStore) StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.err
}

func (s *statusStore) set(st workflow.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

func newTestDoc(kind workflow.Kind) *testDoc {
	doc := &testDoc{
		Document: entity.NewDocument(id.New(), id.New(), kind),
		kind:     kind,
	}
	e := ledger.NewEntry(doc.TenantID, doc.LocationID, id.New(), ledger.TypeAdjustment, types.MustQuantity("2"))
	e.RefType = ledger.RefWasteRecord
	e.RefID = doc.ID
	e.CreatedBy = "tester"
	doc.entries = []ledger.Entry{e}
	return doc
}

func newEngine(t *testing.T) (*Engine, *ledger.MemoryRepository) {
	t.Helper()
	repo := ledger.NewMemoryRepository()
	return NewEngine(ledger.NewService(repo), &tx.MockManager{}), repo
}

func TestPostCommitsStatusAndEntries(t *testing.T) {
	engine, repo := newEngine(t)
	doc := newTestDoc(workflow.KindWasteRecord)
	store := &statusStore{status: workflow.StatusDraft}

	var updated bool
	err := engine.Post(context.Background(), doc, store, workflow.StatusPosted, func(ctx context.Context) error {
		updated = true
		store.set(doc.GetStatus())
		return nil
	})
	require.NoError(t, err)

	assert.True(t, updated)
	assert.Equal(t, workflow.StatusPosted, doc.GetStatus())
	assert.Equal(t, 1, repo.Count())
}

func TestPostFailsWhenStatusChangedConcurrently(t *testing.T) {
	engine, repo := newEngine(t)
	doc := newTestDoc(workflow.KindWasteRecord)
	// Another transaction already posted this document.
	store := &statusStore{status: workflow.StatusPosted}

	err := engine.Post(context.Background(), doc, store, workflow.StatusPosted, func(ctx context.Context) error {
		t.Fatal("updateDoc must not run on precondition failure")
		return nil
	})
	require.Error(t, err)
	assert.True(t, apperror.IsPreconditionFailed(err))
	assert.Equal(t, 0, repo.Count())
	assert.Equal(t, workflow.StatusDraft, doc.GetStatus())
}

func TestDoublePostOnlyFirstWins(t *testing.T) {
	engine, repo := newEngine(t)
	store := &statusStore{status: workflow.StatusDraft}

	first := newTestDoc(workflow.KindWasteRecord)
	second := newTestDoc(workflow.KindWasteRecord)
	second.Document = first.Document // same underlying document, stale copy
	second.entries = first.entries

	update := func(ctx context.Context) error {
		store.set(workflow.StatusPosted)
		return nil
	}

	require.NoError(t, engine.Post(context.Background(), first, store, workflow.StatusPosted, update))

	err := engine.Post(context.Background(), second, store, workflow.StatusPosted, update)
	require.Error(t, err)
	assert.True(t, apperror.IsPreconditionFailed(err))
	assert.Equal(t, 1, repo.Count(), "second attempt must not write entries")
}

func TestPostRejectsIllegalTransition(t *testing.T) {
	engine, repo := newEngine(t)
	doc := newTestDoc(workflow.KindGoodsReceipt)
	doc.SetStatus(workflow.StatusPosted)
	store := &statusStore{status: workflow.StatusPosted}

	err := engine.Post(context.Background(), doc, store, workflow.StatusPosted, func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Equal(t, 0, repo.Count())
}

func TestPostRejectsNonLedgerTransition(t *testing.T) {
	engine, _ := newEngine(t)
	doc := newTestDoc(workflow.KindStockCount)
	store := &statusStore{status: workflow.StatusDraft}

	// draft -> review is legal but writes nothing; services handle it directly.
	err := engine.Post(context.Background(), doc, store, workflow.StatusReview, func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestPostEmptyAfterZeroFilter(t *testing.T) {
	engine, repo := newEngine(t)
	doc := newTestDoc(workflow.KindWasteRecord)
	for i := range doc.entries {
		doc.entries[i].QtyDelta = 0
	}
	store := &statusStore{status: workflow.StatusDraft}

	err := engine.Post(context.Background(), doc, store, workflow.StatusPosted, func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.True(t, apperror.IsEmptyPosting(err))
	assert.Equal(t, 0, repo.Count())
}

func TestPostDropsZeroDeltasKeepsRest(t *testing.T) {
	engine, repo := newEngine(t)
	doc := newTestDoc(workflow.KindWasteRecord)

	zero := doc.entries[0]
	zero.ID = id.New()
	zero.QtyDelta = 0
	doc.entries = append(doc.entries, zero)

	store := &statusStore{status: workflow.StatusDraft}
	err := engine.Post(context.Background(), doc, store, workflow.StatusPosted, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Count())
}

func TestPostPropagatesGenerateError(t *testing.T) {
	engine, repo := newEngine(t)
	doc := newTestDoc(workflow.KindWasteRecord)
	doc.genErr = errors.New("boom")
	store := &statusStore{status: workflow.StatusDraft}

	err := engine.Post(context.Background(), doc, store, workflow.StatusPosted, func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.Equal(t, 0, repo.Count())
}

func TestPostPropagatesUpdateError(t *testing.T) {
	engine, _ := newEngine(t)
	doc := newTestDoc(workflow.KindWasteRecord)
	store := &statusStore{status: workflow.StatusDraft}

	wantErr := errors.New("update failed")
	err := engine.Post(context.Background(), doc, store, workflow.StatusPosted, func(ctx context.Context) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestPostSurfacesCommitError(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	commitErr := errors.New("commit failed")
	engine := NewEngine(ledger.NewService(repo), &tx.MockManager{CommitErr: commitErr})

	doc := newTestDoc(workflow.KindWasteRecord)
	store := &statusStore{status: workflow.StatusDraft}

	err := engine.Post(context.Background(), doc, store, workflow.StatusPosted, func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, commitErr)
}

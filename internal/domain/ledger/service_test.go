package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
)

func testKey() Key {
	return Key{
		TenantID:   id.New(),
		LocationID: id.New(),
		ProductID:  id.New(),
	}
}

func entryFor(key Key, typ EntryType, qty string) Entry {
	e := NewEntry(key.TenantID, key.LocationID, key.ProductID, typ, types.MustQuantity(qty))
	e.RefType = RefGoodsReceipt
	e.RefID = id.New()
	e.CreatedBy = "tester"
	return e
}

func TestOnHandEmptyLedgerIsZero(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	qty, err := svc.OnHand(context.Background(), testKey())
	require.NoError(t, err)
	assert.True(t, qty.IsZero())
}

func TestOnHandSumsSignedDeltas(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	key := testKey()

	entries := []Entry{
		entryFor(key, TypeReceipt, "10"),
		entryFor(key, TypeIssue, "-3.5"),
		entryFor(key, TypeAdjustment, "-0.5"),
		entryFor(key, TypeIssueReversal, "1"),
	}
	require.NoError(t, svc.Record(ctx, entries))

	qty, err := svc.OnHand(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("7"), qty)
}

func TestOnHandIsolatesKeys(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	keyA := testKey()
	keyB := Key{TenantID: keyA.TenantID, LocationID: keyA.LocationID, ProductID: id.New()}
	otherTenant := Key{TenantID: id.New(), LocationID: keyA.LocationID, ProductID: keyA.ProductID}

	require.NoError(t, svc.Record(ctx, []Entry{entryFor(keyA, TypeReceipt, "5")}))
	require.NoError(t, svc.Record(ctx, []Entry{entryFor(keyB, TypeReceipt, "2")}))
	require.NoError(t, svc.Record(ctx, []Entry{entryFor(otherTenant, TypeReceipt, "100")}))

	qty, err := svc.OnHand(ctx, keyA)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("5"), qty)

	qty, err = svc.OnHand(ctx, keyB)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("2"), qty)
}

func TestOnHandFiltersByLot(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	key := testKey()

	lotA := id.New()
	lotB := id.New()

	withLot := func(lot id.ID, qty string) Entry {
		e := entryFor(key, TypeReceipt, qty)
		e.LotID = &lot
		return e
	}
	require.NoError(t, svc.Record(ctx, []Entry{
		withLot(lotA, "6"),
		withLot(lotB, "3"),
		entryFor(key, TypeReceipt, "1"), // unlotted
	}))

	// A lot-less key spans all lots.
	total, err := svc.OnHand(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("10"), total)

	lotted := key
	lotted.LotID = &lotA
	qty, err := svc.OnHand(ctx, lotted)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("6"), qty)

	// A lot that never moved is zero, unlotted entries do not leak in.
	neverMoved := id.New()
	lotted.LotID = &neverMoved
	qty, err = svc.OnHand(ctx, lotted)
	require.NoError(t, err)
	assert.True(t, qty.IsZero())
}

func TestRecordRejectsWrongSign(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	key := testKey()

	cases := []struct {
		name string
		typ  EntryType
		qty  string
	}{
		{"negative receipt", TypeReceipt, "-1"},
		{"positive issue", TypeIssue, "1"},
		{"negative reversal", TypeIssueReversal, "-1"},
		{"zero adjustment", TypeAdjustment, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Record(ctx, []Entry{entryFor(key, tc.typ, tc.qty)})
			require.Error(t, err)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestRecordRequiresReference(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	key := testKey()

	e := NewEntry(key.TenantID, key.LocationID, key.ProductID, TypeReceipt, types.MustQuantity("1"))
	// no RefType/RefID set
	err := svc.Record(context.Background(), []Entry{e})
	require.Error(t, err)
}

func TestOnHandByProductsFillsZeroes(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, svc.Record(ctx, []Entry{entryFor(key, TypeReceipt, "4.25")}))

	neverMoved := id.New()
	sums, err := svc.OnHandByProducts(ctx, key.TenantID, key.LocationID, []id.ID{key.ProductID, neverMoved})
	require.NoError(t, err)

	assert.Equal(t, types.MustQuantity("4.25"), sums[key.ProductID])

	zero, ok := sums[neverMoved]
	assert.True(t, ok, "products without history must be present")
	assert.True(t, zero.IsZero())
}

func TestEntriesForRef(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	key := testKey()

	docID := id.New()
	e1 := entryFor(key, TypeIssue, "-2")
	e1.RefType = RefOrder
	e1.RefID = docID
	e2 := entryFor(key, TypeIssue, "-1")
	e2.RefType = RefOrder
	e2.RefID = docID

	require.NoError(t, svc.Record(ctx, []Entry{e1, e2}))
	require.NoError(t, svc.Record(ctx, []Entry{entryFor(key, TypeReceipt, "9")}))

	got, err := svc.EntriesForRef(ctx, key.TenantID, RefOrder, docID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

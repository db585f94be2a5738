package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mise/internal/core/apperror"
)

func TestStockCountTransitions(t *testing.T) {
	table := ForKind(KindStockCount)

	assert.Equal(t, StatusDraft, table.Initial())
	assert.NoError(t, table.CanTransition(StatusDraft, StatusReview))
	assert.NoError(t, table.CanTransition(StatusReview, StatusPosted))

	// Skipping review is not allowed.
	err := table.CanTransition(StatusDraft, StatusPosted)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))

	// No way back.
	assert.Error(t, table.CanTransition(StatusPosted, StatusReview))
	assert.Error(t, table.CanTransition(StatusReview, StatusDraft))
}

func TestOrderTransitions(t *testing.T) {
	table := ForKind(KindOrder)

	assert.NoError(t, table.CanTransition(StatusOpen, StatusPosted))
	assert.NoError(t, table.CanTransition(StatusOpen, StatusVoided))
	assert.NoError(t, table.CanTransition(StatusPosted, StatusVoided))
	assert.Error(t, table.CanTransition(StatusVoided, StatusPosted))
	assert.Error(t, table.CanTransition(StatusVoided, StatusOpen))

	// Voiding an open order writes nothing; voiding a posted one reverses.
	assert.False(t, table.WritesLedger(StatusOpen, StatusVoided))
	assert.True(t, table.WritesLedger(StatusPosted, StatusVoided))
	assert.True(t, table.WritesLedger(StatusOpen, StatusPosted))
}

func TestWasteAndReceiptTransitions(t *testing.T) {
	waste := ForKind(KindWasteRecord)
	assert.NoError(t, waste.CanTransition(StatusDraft, StatusPosted))
	assert.Error(t, waste.CanTransition(StatusDraft, StatusReview))
	assert.True(t, waste.WritesLedger(StatusDraft, StatusPosted))

	receipt := ForKind(KindGoodsReceipt)
	assert.Equal(t, StatusCreated, receipt.Initial())
	assert.NoError(t, receipt.CanTransition(StatusCreated, StatusPosted))
	assert.Error(t, receipt.CanTransition(StatusPosted, StatusCreated))
}

func TestEnsureEditable(t *testing.T) {
	table := ForKind(KindStockCount)

	assert.NoError(t, table.EnsureEditable(StatusDraft))

	err := table.EnsureEditable(StatusReview)
	require.Error(t, err)
	assert.True(t, apperror.IsDocumentLocked(err))

	assert.Error(t, table.EnsureEditable(StatusPosted))
}

func TestCanTransitionItemPrep(t *testing.T) {
	assert.NoError(t, CanTransitionItemPrep(ItemQueued, ItemPreparing))
	assert.NoError(t, CanTransitionItemPrep(ItemPreparing, ItemReady))
	assert.NoError(t, CanTransitionItemPrep(ItemReady, ItemServed))
	assert.NoError(t, CanTransitionItemPrep(ItemQueued, ItemCancelled))
	assert.NoError(t, CanTransitionItemPrep(ItemPreparing, ItemCancelled))

	// Terminal states and skips.
	assert.Error(t, CanTransitionItemPrep(ItemServed, ItemPreparing))
	assert.Error(t, CanTransitionItemPrep(ItemCancelled, ItemQueued))
	assert.Error(t, CanTransitionItemPrep(ItemQueued, ItemReady))
	assert.Error(t, CanTransitionItemPrep(ItemReady, ItemCancelled))
}

func TestDeriveOrderPrepStatus(t *testing.T) {
	tests := []struct {
		name    string
		current PrepStatus
		items   []ItemPrepStatus
		want    PrepStatus
	}{
		{"no items keeps current", PrepOpen, nil, PrepOpen},
		{"item starts preparing", PrepOpen, []ItemPrepStatus{ItemPreparing, ItemQueued}, PrepPreparing},
		{"still queued stays open", PrepOpen, []ItemPrepStatus{ItemQueued, ItemQueued}, PrepOpen},
		{"all done while preparing", PrepPreparing, []ItemPrepStatus{ItemReady, ItemCancelled}, PrepReady},
		{"one still cooking", PrepPreparing, []ItemPrepStatus{ItemReady, ItemPreparing}, PrepPreparing},
		{"any served wins", PrepReady, []ItemPrepStatus{ItemServed, ItemCancelled}, PrepServed},
		{"served beats preparing", PrepPreparing, []ItemPrepStatus{ItemServed, ItemPreparing}, PrepServed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveOrderPrepStatus(tt.current, tt.items)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSingleItemLifecycleEndsServed(t *testing.T) {
	status := PrepOpen
	item := ItemQueued

	for _, next := range []ItemPrepStatus{ItemPreparing, ItemReady, ItemServed} {
		require.NoError(t, CanTransitionItemPrep(item, next))
		item = next
		status = DeriveOrderPrepStatus(status, []ItemPrepStatus{item})
	}

	assert.Equal(t, PrepServed, status)
}

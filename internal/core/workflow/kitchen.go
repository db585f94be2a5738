package workflow

import (
	"mise/internal/core/apperror"
)

// Kitchen preparation status is a second, independent state machine attached
// to orders and their items. It never touches the ledger; it only tracks
// where a dish is between the POS terminal and the pass.

// PrepStatus is the aggregate kitchen status of an order.
type PrepStatus string

const (
	PrepOpen      PrepStatus = "open"
	PrepPreparing PrepStatus = "preparing"
	PrepReady     PrepStatus = "ready"
	PrepServed    PrepStatus = "served"
	PrepCancelled PrepStatus = "cancelled"
)

// ItemPrepStatus is the kitchen status of one order item.
type ItemPrepStatus string

const (
	ItemQueued    ItemPrepStatus = "queued"
	ItemPreparing ItemPrepStatus = "preparing"
	ItemReady     ItemPrepStatus = "ready"
	ItemServed    ItemPrepStatus = "served"
	ItemCancelled ItemPrepStatus = "cancelled"
)

type itemPrepTransition struct {
	from, to ItemPrepStatus
}

var legalItemPrep = map[itemPrepTransition]bool{
	{ItemQueued, ItemPreparing}:    true,
	{ItemPreparing, ItemReady}:     true,
	{ItemReady, ItemServed}:        true,
	{ItemQueued, ItemCancelled}:    true,
	{ItemPreparing, ItemCancelled}: true,
}

// CanTransitionItemPrep returns nil if an order item may move from→to.
// served and cancelled are terminal.
func CanTransitionItemPrep(from, to ItemPrepStatus) error {
	if !legalItemPrep[itemPrepTransition{from, to}] {
		return apperror.NewInvalidTransition("OrderItem", string(from), string(to))
	}
	return nil
}

// DeriveOrderPrepStatus computes the order's aggregate kitchen status from
// its items' statuses. Pure function, invoked after every item-level
// transition:
//
//   - any item served            => order served
//   - all items done (ready,
//     served or cancelled) while
//     the order was preparing    => order ready
//   - any item preparing while
//     the order was open         => order preparing
//
// Otherwise the current status is kept.
func DeriveOrderPrepStatus(current PrepStatus, items []ItemPrepStatus) PrepStatus {
	if len(items) == 0 {
		return current
	}

	anyServed := false
	anyPreparing := false
	allDone := true
	for _, it := range items {
		switch it {
		case ItemServed:
			anyServed = true
		case ItemPreparing:
			anyPreparing = true
		}
		if it != ItemReady && it != ItemServed && it != ItemCancelled {
			allDone = false
		}
	}

	switch {
	case anyServed:
		return PrepServed
	case current == PrepPreparing && allDone:
		return PrepReady
	case current == PrepOpen && anyPreparing:
		return PrepPreparing
	default:
		return current
	}
}

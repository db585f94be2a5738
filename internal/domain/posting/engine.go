// Package posting coordinates document status transitions with ledger writes.
// A ledger-writing transition commits atomically: the status flip and every
// entry it produces land in one transaction or not at all.
package posting

import (
	"context"
	"fmt"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/tx"
	"mise/internal/core/workflow"
	"mise/internal/domain/ledger"
	"mise/pkg/logger"
)

// Postable is implemented by documents that can move through the engine.
type Postable interface {
	GetID() id.ID
	GetTenantID() id.ID
	GetStatus() workflow.Status
	SetStatus(workflow.Status)

	// Kind selects the transition table the engine enforces.
	Kind() workflow.Kind

	// GenerateEntries produces the ledger entries for a transition into
	// the target status. Posting yields forward entries, voiding yields
	// compensating ones. Zero-delta entries are allowed here; the engine
	// drops them.
	GenerateEntries(ctx context.Context, to workflow.Status) ([]ledger.Entry, error)
}

// StatusReader re-reads document status under a row lock.
// Implementations use SELECT ... FOR UPDATE so concurrent transitions of
// the same document serialize on the row.
type StatusReader interface {
	StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error)
}

// Engine executes ledger-writing transitions.
type Engine struct {
	ledger    *ledger.Service
	txManager tx.Manager
}

// NewEngine creates a posting engine.
func NewEngine(ledgerSvc *ledger.Service, txManager tx.Manager) *Engine {
	return &Engine{
		ledger:    ledgerSvc,
		txManager: txManager,
	}
}

// Post moves doc into the target status and records its ledger entries in
// one transaction. The document status is re-read under lock inside the
// transaction; if another caller moved it first, the transition fails with
// a precondition error and nothing is written.
//
// updateDoc persists the document with its new status (same transaction).
func (e *Engine) Post(ctx context.Context, doc Postable, statuses StatusReader, to workflow.Status, updateDoc func(ctx context.Context) error) error {
	table := workflow.ForKind(doc.Kind())

	from := doc.GetStatus()
	if err := table.CanTransition(from, to); err != nil {
		return err
	}
	if !table.WritesLedger(from, to) {
		return apperror.NewInternal(
			fmt.Errorf("transition %s -> %s for %s does not write the ledger", from, to, doc.Kind()),
		)
	}

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := statuses.StatusForUpdate(ctx, doc.GetTenantID(), doc.GetID())
		if err != nil {
			return fmt.Errorf("lock document status: %w", err)
		}
		if current != from {
			return apperror.NewPreconditionFailed(
				fmt.Sprintf("document status changed from %s to %s", from, current),
			).WithDetail("document_id", doc.GetID().String())
		}

		entries, err := doc.GenerateEntries(ctx, to)
		if err != nil {
			return fmt.Errorf("generate entries: %w", err)
		}

		entries = dropZeroDeltas(entries)
		if len(entries) == 0 {
			return apperror.NewEmptyPosting(string(doc.Kind()))
		}

		if err := e.ledger.Record(ctx, entries); err != nil {
			return err
		}

		doc.SetStatus(to)
		if err := updateDoc(ctx); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		return nil
	})

	if err != nil {
		// The transaction rolled back; callers discard the in-memory doc
		// and re-fetch on error.
		return err
	}

	logger.Info(ctx, "document transition committed",
		"kind", doc.Kind(),
		"document_id", doc.GetID(),
		"from", from,
		"to", to,
	)

	return nil
}

func dropZeroDeltas(entries []ledger.Entry) []ledger.Entry {
	out := entries[:0]
	for _, e := range entries {
		if !e.QtyDelta.IsZero() {
			out = append(out, e)
		}
	}
	return out
}

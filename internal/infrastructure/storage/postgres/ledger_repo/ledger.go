// Package ledger_repo provides the PostgreSQL implementation of the
// stock ledger repository. The table is append-only: the repo exposes
// no update or delete.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/ledger"
	"mise/internal/infrastructure/storage/postgres"
)

const ledgerTable = "stock_ledger"

var ledgerColumns = []string{
	"id", "tenant_id", "location_id", "product_id", "lot_id",
	"entry_type", "qty_delta", "unit_cost",
	"ref_type", "ref_id", "note", "created_by", "created_at",
}

// Compile-time check that LedgerRepo implements ledger.Repository.
var _ ledger.Repository = (*LedgerRepo)(nil)

// keyConds builds the WHERE clause for a balance key. The lot filter is
// applied only when the key carries one; a lot-less key spans all lots.
func keyConds(key ledger.Key) squirrel.Eq {
	conds := squirrel.Eq{
		"tenant_id":   key.TenantID,
		"location_id": key.LocationID,
		"product_id":  key.ProductID,
	}
	if key.LotID != nil {
		conds["lot_id"] = *key.LotID
	}
	return conds
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append batch inserts entries. Uses COPY when called inside a
// transaction, which posting always does.
func (r *LedgerRepo) Append(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.ID, e.TenantID, e.LocationID, e.ProductID, e.LotID,
				e.Type, e.QtyDelta, e.UnitCost,
				e.RefType, e.RefID, e.Note, e.CreatedBy, e.CreatedAt,
			})
		}
		if _, err := postgres.CopyInto(ctx, r.txManager, ledgerTable, ledgerColumns, rows); err != nil {
			return fmt.Errorf("copy ledger entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(ledgerTable).Columns(ledgerColumns...)
	for _, e := range entries {
		q = q.Values(
			e.ID, e.TenantID, e.LocationID, e.ProductID, e.LotID,
			e.Type, e.QtyDelta, e.UnitCost,
			e.RefType, e.RefID, e.Note, e.CreatedBy, e.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger entries: %w", err)
	}

	return nil
}

// SumDeltas returns the signed sum of deltas for a key.
// A key with no entries sums to zero.
func (r *LedgerRepo) SumDeltas(ctx context.Context, key ledger.Key) (types.Quantity, error) {
	q := r.builder.
		Select("COALESCE(SUM(qty_delta), 0)").
		From(ledgerTable).
		Where(keyConds(key))

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum query: %w", err)
	}

	var sum int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum deltas: %w", err)
	}

	return types.Quantity(sum), nil
}

// SumDeltasByProducts returns sums for many products at one location
// in a single grouped query. Products with no entries are absent.
func (r *LedgerRepo) SumDeltasByProducts(ctx context.Context, tenantID, locationID id.ID, productIDs []id.ID) (map[id.ID]types.Quantity, error) {
	result := make(map[id.ID]types.Quantity, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	q := r.builder.
		Select("product_id", "COALESCE(SUM(qty_delta), 0) AS total").
		From(ledgerTable).
		Where(squirrel.Eq{
			"tenant_id":   tenantID,
			"location_id": locationID,
			"product_id":  productIDs,
		}).
		GroupBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sum query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID id.ID
		var total int64
		if err := rows.Scan(&productID, &total); err != nil {
			return nil, fmt.Errorf("scan sum row: %w", err)
		}
		result[productID] = types.Quantity(total)
	}

	return result, rows.Err()
}

// ListByRef returns all entries produced by one document, oldest first.
func (r *LedgerRepo) ListByRef(ctx context.Context, tenantID id.ID, refType string, refID id.ID) ([]ledger.Entry, error) {
	q := r.builder.
		Select(ledgerColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{
			"tenant_id": tenantID,
			"ref_type":  refType,
			"ref_id":    refID,
		}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list by ref: %w", err)
	}

	return entries, nil
}

// ListByKey returns entry history for a key, newest first.
func (r *LedgerRepo) ListByKey(ctx context.Context, key ledger.Key, f ledger.HistoryFilter) ([]ledger.Entry, error) {
	q := r.builder.
		Select(ledgerColumns...).
		From(ledgerTable).
		Where(keyConds(key)).
		OrderBy("created_at DESC")

	if f.Type != nil {
		q = q.Where(squirrel.Eq{"entry_type": *f.Type})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.ToDate})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list by key: %w", err)
	}

	return entries, nil
}

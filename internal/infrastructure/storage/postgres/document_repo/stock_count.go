package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mise/internal/core/id"
	"mise/internal/domain"
	"mise/internal/domain/documents/stockcount"
	"mise/internal/infrastructure/storage/postgres"
)

const (
	stockCountsTable     = "doc_stock_counts"
	stockCountLinesTable = "doc_stock_count_lines"
)

// StockCountRepo implements stockcount.Repository.
type StockCountRepo struct {
	*BaseDocumentRepo[*stockcount.StockCount]
}

// NewStockCountRepo creates a new stock count repository.
func NewStockCountRepo(txManager *postgres.TxManager) *StockCountRepo {
	return &StockCountRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			stockCountsTable,
			postgres.ExtractDBColumns[stockcount.StockCount](),
			func() *stockcount.StockCount { return &stockcount.StockCount{} },
		),
	}
}

func (r *StockCountRepo) GetLines(ctx context.Context, tenantID, docID id.ID) ([]stockcount.Line, error) {
	q := r.Builder().
		Select(
			"l.id", "l.document_id", "l.line_no", "l.product_id", "l.lot_id",
			"l.system_qty", "l.counted_qty", "l.variance_qty",
			"l.counted_by", "l.counted_at",
		).
		From(stockCountLinesTable + " l").
		Join(stockCountsTable + " d ON d.id = l.document_id").
		Where(squirrel.Eq{"l.document_id": docID}).
		Where(squirrel.Eq{"d.tenant_id": tenantID}).
		OrderBy("l.line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []stockcount.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *StockCountRepo) SaveLines(ctx context.Context, doc *stockcount.StockCount) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + stockCountLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, doc.ID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(doc.Lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(stockCountLinesTable).
		Columns(
			"id", "document_id", "line_no", "product_id", "lot_id",
			"system_qty", "counted_qty", "variance_qty",
			"counted_by", "counted_at",
		)

	for _, line := range doc.Lines {
		q = q.Values(
			line.ID, doc.ID, line.LineNo, line.ProductID, line.LotID,
			line.SystemQty, line.CountedQty, line.Variance,
			line.CountedBy, line.CountedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

func (r *StockCountRepo) List(ctx context.Context, tenantID id.ID, f stockcount.ListFilter) (domain.ListResult[*stockcount.StockCount], error) {
	var conds []squirrel.Sqlizer
	if f.LocationID != nil {
		conds = append(conds, squirrel.Eq{"location_id": *f.LocationID})
	}
	if f.Status != nil {
		conds = append(conds, squirrel.Eq{"status": *f.Status})
	}
	if f.DateFrom != nil {
		conds = append(conds, squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		conds = append(conds, squirrel.LtOrEq{"date": *f.DateTo})
	}

	return r.listWith(ctx, tenantID, f.ListFilter, conds)
}

var _ stockcount.Repository = (*StockCountRepo)(nil)

package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mise/internal/core/id"
	"mise/internal/domain"
	"mise/internal/domain/documents/goodsreceipt"
	"mise/internal/infrastructure/storage/postgres"
)

const (
	goodsReceiptsTable    = "doc_goods_receipts"
	goodsReceiptLinesTable = "doc_goods_receipt_lines"
)

// GoodsReceiptRepo implements goodsreceipt.Repository.
type GoodsReceiptRepo struct {
	*BaseDocumentRepo[*goodsreceipt.GoodsReceipt]
}

// NewGoodsReceiptRepo creates a new goods receipt repository.
func NewGoodsReceiptRepo(txManager *postgres.TxManager) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			goodsReceiptsTable,
			postgres.ExtractDBColumns[goodsreceipt.GoodsReceipt](),
			func() *goodsreceipt.GoodsReceipt { return &goodsreceipt.GoodsReceipt{} },
		),
	}
}

func (r *GoodsReceiptRepo) GetLines(ctx context.Context, tenantID, docID id.ID) ([]goodsreceipt.Line, error) {
	q := r.Builder().
		Select(
			"l.id", "l.document_id", "l.line_no", "l.product_id",
			"l.qty", "l.unit_cost", "l.lot_id",
		).
		From(goodsReceiptLinesTable + " l").
		Join(goodsReceiptsTable + " d ON d.id = l.document_id").
		Where(squirrel.Eq{"l.document_id": docID}).
		Where(squirrel.Eq{"d.tenant_id": tenantID}).
		OrderBy("l.line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []goodsreceipt.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *GoodsReceiptRepo) SaveLines(ctx context.Context, doc *goodsreceipt.GoodsReceipt) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + goodsReceiptLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, doc.ID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(doc.Lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(goodsReceiptLinesTable).
		Columns("id", "document_id", "line_no", "product_id", "qty", "unit_cost", "lot_id")

	for _, line := range doc.Lines {
		q = q.Values(line.ID, doc.ID, line.LineNo, line.ProductID, line.Qty, line.UnitCost, line.LotID)
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

func (r *GoodsReceiptRepo) List(ctx context.Context, tenantID id.ID, f goodsreceipt.ListFilter) (domain.ListResult[*goodsreceipt.GoodsReceipt], error) {
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

var _ goodsreceipt.Repository = (*GoodsReceiptRepo)(nil)

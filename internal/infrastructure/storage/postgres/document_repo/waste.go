package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mise/internal/core/id"
	"mise/internal/domain"
	"mise/internal/domain/documents/waste"
	"mise/internal/infrastructure/storage/postgres"
)

const (
	wasteRecordsTable = "doc_waste_records"
	wasteLinesTable   = "doc_waste_lines"
)

// WasteRepo implements waste.Repository.
type WasteRepo struct {
	*BaseDocumentRepo[*waste.WasteRecord]
}

// NewWasteRepo creates a new waste record repository.
func NewWasteRepo(txManager *postgres.TxManager) *WasteRepo {
	return &WasteRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			wasteRecordsTable,
			postgres.ExtractDBColumns[waste.WasteRecord](),
			func() *waste.WasteRecord { return &waste.WasteRecord{} },
		),
	}
}

func (r *WasteRepo) GetLines(ctx context.Context, tenantID, docID id.ID) ([]waste.Line, error) {
	q := r.Builder().
		Select("l.id", "l.document_id", "l.line_no", "l.product_id", "l.qty", "l.note").
		From(wasteLinesTable + " l").
		Join(wasteRecordsTable + " d ON d.id = l.document_id").
		Where(squirrel.Eq{"l.document_id": docID}).
		Where(squirrel.Eq{"d.tenant_id": tenantID}).
		OrderBy("l.line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []waste.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *WasteRepo) SaveLines(ctx context.Context, doc *waste.WasteRecord) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + wasteLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, doc.ID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(doc.Lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(wasteLinesTable).
		Columns("id", "document_id", "line_no", "product_id", "qty", "note")

	for _, line := range doc.Lines {
		q = q.Values(line.ID, doc.ID, line.LineNo, line.ProductID, line.Qty, line.Note)
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

func (r *WasteRepo) List(ctx context.Context, tenantID id.ID, f waste.ListFilter) (domain.ListResult[*waste.WasteRecord], error) {
	var conds []squirrel.Sqlizer
	if f.LocationID != nil {
		conds = append(conds, squirrel.Eq{"location_id": *f.LocationID})
	}
	if f.Status != nil {
		conds = append(conds, squirrel.Eq{"status": *f.Status})
	}
	if f.Reason != "" {
		conds = append(conds, squirrel.Eq{"reason": f.Reason})
	}
	if f.DateFrom != nil {
		conds = append(conds, squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		conds = append(conds, squirrel.LtOrEq{"date": *f.DateTo})
	}

	return r.listWith(ctx, tenantID, f.ListFilter, conds)
}

var _ waste.Repository = (*WasteRepo)(nil)

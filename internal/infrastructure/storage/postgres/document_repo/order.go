package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mise/internal/core/id"
	"mise/internal/domain"
	"mise/internal/domain/documents/order"
	"mise/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "doc_orders"
	orderItemsTable = "doc_order_items"
)

// OrderRepo implements order.Repository.
type OrderRepo struct {
	*BaseDocumentRepo[*order.Order]
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			ordersTable,
			postgres.ExtractDBColumns[order.Order](),
			func() *order.Order { return &order.Order{} },
		),
	}
}

func (r *OrderRepo) GetItems(ctx context.Context, tenantID, docID id.ID) ([]order.Item, error) {
	q := r.Builder().
		Select(
			"i.id", "i.document_id", "i.line_no", "i.product_id",
			"i.qty", "i.unit_price", "i.prep_status",
		).
		From(orderItemsTable + " i").
		Join(ordersTable + " d ON d.id = i.document_id").
		Where(squirrel.Eq{"i.document_id": docID}).
		Where(squirrel.Eq{"d.tenant_id": tenantID}).
		OrderBy("i.line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []order.Item
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

func (r *OrderRepo) SaveItems(ctx context.Context, doc *order.Order) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + orderItemsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, doc.ID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(doc.Items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(orderItemsTable).
		Columns(
			"id", "document_id", "line_no", "product_id",
			"qty", "unit_price", "prep_status",
		)

	for _, item := range doc.Items {
		q = q.Values(
			item.ID, doc.ID, item.LineNo, item.ProductID,
			item.Qty, item.UnitPrice, item.PrepStatus,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

func (r *OrderRepo) List(ctx context.Context, tenantID id.ID, f order.ListFilter) (domain.ListResult[*order.Order], error) {
	var conds []squirrel.Sqlizer
	if f.LocationID != nil {
		conds = append(conds, squirrel.Eq{"location_id": *f.LocationID})
	}
	if f.Status != nil {
		conds = append(conds, squirrel.Eq{"status": *f.Status})
	}
	if f.PrepStatus != nil {
		conds = append(conds, squirrel.Eq{"prep_status": *f.PrepStatus})
	}
	if f.DateFrom != nil {
		conds = append(conds, squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		conds = append(conds, squirrel.LtOrEq{"date": *f.DateTo})
	}

	return r.listWith(ctx, tenantID, f.ListFilter, conds)
}

var _ order.Repository = (*OrderRepo)(nil)

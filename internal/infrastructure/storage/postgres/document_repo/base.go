// Package document_repo provides PostgreSQL implementations for document repositories.
// All queries are scoped by tenant_id; tenants share one database.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/workflow"
	"mise/internal/domain"
	"mise/internal/infrastructure/storage/postgres"
)

// immutableColumns never appear in an UPDATE: the first group is fixed
// at creation, version and updated_at are written by the repo itself.
var immutableColumns = map[string]bool{
	"id":         true,
	"tenant_id":  true,
	"created_at": true,
	"created_by": true,
	"version":    true,
	"updated_at": true,
}

// BaseDocumentRepo carries the header-level CRUD shared by every
// document kind. Line handling stays in the concrete repo because
// line shapes differ per kind.
type BaseDocumentRepo[T any] struct {
	txManager *postgres.TxManager
	table     string
	columns   []string
	newFn     func() T
}

// NewBaseDocumentRepo binds the generic document surface to one table.
func NewBaseDocumentRepo[T any](
	txManager *postgres.TxManager,
	table string,
	columns []string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager: txManager,
		table:     table,
		columns:   columns,
		newFn:     newFn,
	}
}

// Builder returns a squirrel builder configured for $n placeholders.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier resolves to the ambient transaction when one is open.
func (r *BaseDocumentRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T]) rowValues(entity T) (map[string]any, error) {
	values := postgres.StructToMap(entity)
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: entity carries no db tags", r.table)
	}
	row := make(map[string]any, len(r.columns))
	for _, c := range r.columns {
		if v, ok := values[c]; ok {
			row[c] = v
		}
	}
	return row, nil
}

// Create inserts the document header. Lines go through the concrete
// repo in the same transaction.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	row, err := r.rowValues(entity)
	if err != nil {
		return err
	}

	sql, args, err := r.Builder().Insert(r.table).SetMap(row).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

// Update writes the header back under optimistic locking. Zero rows
// affected means the stored version moved past the one the caller
// read.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, entity T) error {
	row, err := r.rowValues(entity)
	if err != nil {
		return err
	}

	entityID, ok := row["id"]
	if !ok {
		return fmt.Errorf("%s: entity has no id column", r.table)
	}
	tenantID, ok := row["tenant_id"]
	if !ok {
		return fmt.Errorf("%s: entity has no tenant_id column", r.table)
	}
	version, ok := row["version"].(int)
	if !ok {
		return fmt.Errorf("%s: entity has no int version column", r.table)
	}

	for col := range immutableColumns {
		delete(row, col)
	}

	sql, args, err := r.Builder().
		Update(r.table).
		SetMap(row).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID, "tenant_id": tenantID, "version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.table, entityID)
	}
	return nil
}

func (r *BaseDocumentRepo[T]) baseSelect(tenantID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.columns...).
		From(r.table).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

func (r *BaseDocumentRepo[T]) scanOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.table, key)
		}
		return entity, fmt.Errorf("select %s: %w", r.table, err)
	}
	return entity, nil
}

// GetByID fetches the document header by primary key within the tenant.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, tenantID, docID id.ID) (T, error) {
	return r.scanOne(ctx, r.baseSelect(tenantID).Where(squirrel.Eq{"id": docID}), docID.String())
}

// GetByNumber fetches the document header by its tenant-unique number.
func (r *BaseDocumentRepo[T]) GetByNumber(ctx context.Context, tenantID id.ID, number string) (T, error) {
	return r.scanOne(ctx, r.baseSelect(tenantID).Where(squirrel.Eq{"number": number}), number)
}

// StatusForUpdate re-reads the document status under FOR UPDATE so a
// transition decision cannot race a concurrent post or void. Must run
// inside a transaction; the row lock holds until commit.
func (r *BaseDocumentRepo[T]) StatusForUpdate(ctx context.Context, tenantID, docID id.ID) (workflow.Status, error) {
	sql, args, err := r.Builder().
		Select("status").
		From(r.table).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": docID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var status workflow.Status
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&status); err != nil {
		if pgxscan.NotFound(err) {
			return "", apperror.NewNotFound(r.table, docID.String())
		}
		return "", fmt.Errorf("status for update: %w", err)
	}
	return status, nil
}

// listWith runs the shared filtered, counted, paginated list query.
// Concrete repos pass their kind-specific conditions, like prep status
// for orders or reason for waste records.
func (r *BaseDocumentRepo[T]) listWith(ctx context.Context, tenantID id.ID, f domain.ListFilter, conds []squirrel.Sqlizer) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect(tenantID)

	if !f.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	// Documents are found by number, not by name.
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + f.Search + "%"})
	}

	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}

	for _, cond := range conds {
		q = q.Where(cond)
	}

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	db := r.Querier(ctx)
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.table, err)
	}

	orderBy, err := r.resolveOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, db, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.table, err)
	}
	return result, nil
}

// resolveOrderBy validates the client's sort field against the table's
// columns. Documents default to newest first.
func (r *BaseDocumentRepo[T]) resolveOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	switch {
	case strings.HasPrefix(orderBy, "-"):
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	case strings.HasPrefix(orderBy, "+"):
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	known := false
	for _, c := range r.columns {
		if c == field {
			known = true
			break
		}
	}
	if field == "" || !known {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}

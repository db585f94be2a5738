// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
// All queries are scoped by tenant_id; tenants share one database.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/domain"
	"mise/internal/domain/filter"
	"mise/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo carries the CRUD surface shared by every catalog
// table. Concrete repos embed it and add their own lookups on top.
type BaseCatalogRepo[T any] struct {
	txManager *postgres.TxManager
	table     string
	columns   []string
	newFn     func() T
}

// NewBaseCatalogRepo binds the generic CRUD surface to one table.
// columns is the canonical column list, usually produced by
// postgres.ExtractDBColumns at construction.
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	table string,
	columns []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager: txManager,
		table:     table,
		columns:   columns,
		newFn:     newFn,
	}
}

// Builder returns a squirrel builder configured for $n placeholders.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// columnSet reports which columns the table has, for whitelisting
// caller-supplied field names.
func (r *BaseCatalogRepo[T]) columnSet() map[string]bool {
	set := make(map[string]bool, len(r.columns))
	for _, c := range r.columns {
		set[c] = true
	}
	return set
}

// rowValues maps the entity's db-tagged fields onto the table's
// columns, dropping tags the table does not know about.
func (r *BaseCatalogRepo[T]) rowValues(entity T) (map[string]any, error) {
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

// Create inserts the entity as a new row.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	row, err := r.rowValues(entity)
	if err != nil {
		return err
	}

	sql, args, err := r.Builder().Insert(r.table).SetMap(row).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

// Update writes the entity back under optimistic locking. The WHERE
// clause pins the version the caller read; zero rows affected means
// someone else won the race and the caller gets a conflict error.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
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

	// id and tenant_id never change, version is bumped here.
	delete(row, "id")
	delete(row, "tenant_id")
	delete(row, "version")

	sql, args, err := r.Builder().
		Update(r.table).
		SetMap(row).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID, "tenant_id": tenantID, "version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.table, entityID)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) baseSelect(tenantID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.columns...).
		From(r.table).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

// scanOne runs q expecting a single row; key is used in the not-found
// error so callers see what they asked for.
func (r *BaseCatalogRepo[T]) scanOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.table, key)
		}
		return entity, fmt.Errorf("select %s: %w", r.table, err)
	}
	return entity, nil
}

// GetByID fetches one row by primary key within the tenant. Marked
// rows are still returned so callers can inspect them.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, tenantID, entityID id.ID) (T, error) {
	q := r.baseSelect(tenantID).Where(squirrel.Eq{"id": entityID}).Limit(1)
	return r.scanOne(ctx, q, entityID.String())
}

// GetByCode fetches one live row by its tenant-unique code.
func (r *BaseCatalogRepo[T]) GetByCode(ctx context.Context, tenantID id.ID, code string) (T, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"code": code, "deletion_mark": false}).
		Limit(1)
	return r.scanOne(ctx, q, code)
}

// FindOne runs a caller-built SELECT and scans a single entity. Used
// by concrete repos for lookups the base does not know about, like
// product-by-barcode.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder) (T, error) {
	return r.scanOne(ctx, q, "matching query")
}

// List pages through the catalog, returning both the page and the
// total count before pagination so clients can render paging controls.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, tenantID id.ID, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect(tenantID)

	if !f.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}

	var err error
	q, err = r.applyFieldFilters(q, f.AdvancedFilters)
	if err != nil {
		return domain.ListResult[T]{}, err
	}

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	db := r.txManager.GetQuerier(ctx)
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

// applyFieldFilters translates ad-hoc per-field conditions into WHERE
// clauses. Field names are checked against the table's columns, which
// is what keeps client-supplied filters from reaching raw SQL.
func (r *BaseCatalogRepo[T]) applyFieldFilters(q squirrel.SelectBuilder, items []filter.Item) (squirrel.SelectBuilder, error) {
	known := r.columnSet()

	for _, item := range items {
		if !known[item.Field] {
			return q, apperror.NewValidation("invalid filter column").WithDetail("field", item.Field)
		}

		switch item.Operator {
		case filter.Equal:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{item.Field: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{item.Field: item.Value})
		case filter.InList:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotInList:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{item.Field: nil})
		case filter.Contains:
			q = q.Where(squirrel.ILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		default:
			return q, apperror.NewValidation("unsupported filter operator").WithDetail("operator", string(item.Operator))
		}
	}
	return q, nil
}

// Exists reports whether the row exists in the tenant, marked or not.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, tenantID, entityID id.ID) (bool, error) {
	return r.rowExists(ctx, squirrel.Eq{"tenant_id": tenantID, "id": entityID})
}

// ExistsByCode reports whether a live row with the code exists in the
// tenant. Used for uniqueness checks before insert.
func (r *BaseCatalogRepo[T]) ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error) {
	return r.rowExists(ctx, squirrel.Eq{"tenant_id": tenantID, "code": code, "deletion_mark": false})
}

func (r *BaseCatalogRepo[T]) rowExists(ctx context.Context, where squirrel.Eq) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.table).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.table, err)
	}
	return true, nil
}

// SetDeletionMark flips the soft-delete flag. Rows are never removed,
// the ledger may still reference them.
func (r *BaseCatalogRepo[T]) SetDeletionMark(ctx context.Context, tenantID, entityID id.ID, marked bool) error {
	sql, args, err := r.Builder().
		Update(r.table).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark on %s: %w", r.table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.table, entityID.String())
	}
	return nil
}

// SelectColumns exposes the configured column list to embedding repos.
func (r *BaseCatalogRepo[T]) SelectColumns() []string {
	return r.columns
}

// TableName exposes the configured table name to embedding repos.
func (r *BaseCatalogRepo[T]) TableName() string {
	return r.table
}

// resolveOrderBy turns the client's "field", "+field" or "-field"
// into an ORDER BY clause, rejecting anything that is not a column.
func (r *BaseCatalogRepo[T]) resolveOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "name ASC", nil
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
	if field == "" || !r.columnSet()[field] {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}

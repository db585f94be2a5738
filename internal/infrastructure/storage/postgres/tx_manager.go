package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mise/internal/core/tx"
	"mise/pkg/logger"
)

var tracer = otel.Tracer("mise/tx")

var _ tx.Manager = (*TxManager)(nil)

// TxOptions selects isolation, access mode and per-transaction limits.
type TxOptions struct {
	// IsolationLevel for the transaction. Posting runs serializable,
	// everything else is fine with read committed.
	IsolationLevel pgx.TxIsoLevel

	// AccessMode is pgx.ReadWrite or pgx.ReadOnly.
	AccessMode pgx.TxAccessMode

	// StatementTimeout caps any single statement inside the transaction.
	// Zero disables the cap.
	StatementTimeout time.Duration

	// UseSavepoint gives a nested call its own rollback scope via
	// SAVEPOINT instead of simply joining the outer transaction.
	UseSavepoint bool
}

// DefaultTxOptions: read committed, read-write, 30s statement cap.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel:   pgx.ReadCommitted,
		AccessMode:       pgx.ReadWrite,
		StatementTimeout: 30 * time.Second,
	}
}

// SerializableTxOptions is used by the posting engine, where ledger
// appends and on-hand reads must not interleave between documents.
func SerializableTxOptions() TxOptions {
	o := DefaultTxOptions()
	o.IsolationLevel = pgx.Serializable
	return o
}

// Tx is the in-flight transaction carried through the context.
type Tx struct {
	pgx.Tx
}

type txKey struct{}

// TxManager begins transactions on the pool and threads them through
// the context so that repositories, the posting engine and audit hooks
// all land on the same connection.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a transaction manager on the service pool.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool}
}

// NewTxManagerFromRawPool wraps a bare pgxpool.Pool, mostly for tests.
func NewTxManagerFromRawPool(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// RunInTransaction runs fn inside a transaction with default options.
// When the context already carries one, fn joins it instead of opening
// a second connection.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, DefaultTxOptions(), fn)
}

// RunInTransactionWithOptions is RunInTransaction with explicit options.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.isolation", string(opts.IsolationLevel))))
	defer span.End()

	if outer := m.GetTx(ctx); outer != nil {
		return m.joinTransaction(ctx, outer, opts, fn)
	}
	return m.beginAndRun(ctx, opts, fn)
}

// ReadOnly runs fn in a read-only transaction, which lets Postgres
// reject accidental writes from report-style paths.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	o := DefaultTxOptions()
	o.AccessMode = pgx.ReadOnly
	return m.RunInTransactionWithOptions(ctx, o, fn)
}

func (m *TxManager) beginAndRun(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	dbTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   opts.IsolationLevel,
		AccessMode: opts.AccessMode,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if opts.StatementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", opts.StatementTimeout.Milliseconds())
		if _, err := dbTx.Exec(ctx, stmt); err != nil {
			_ = dbTx.Rollback(ctx)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	txCtx := context.WithValue(ctx, txKey{}, &Tx{Tx: dbTx})
	if err := fn(txCtx); err != nil {
		// Roll back on a background context so cancellation of the
		// request does not leave the connection mid-transaction.
		if rbErr := dbTx.Rollback(context.Background()); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// joinTransaction runs fn against an already-open transaction. With
// UseSavepoint set, fn can fail and roll back without poisoning the
// outer work.
func (m *TxManager) joinTransaction(ctx context.Context, outer *Tx, opts TxOptions, fn func(ctx context.Context) error) error {
	if !opts.UseSavepoint {
		return fn(ctx)
	}

	name := fmt.Sprintf("sp_%d", time.Now().UnixNano())
	if _, err := outer.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := outer.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			logger.Error(ctx, "rollback to savepoint failed", "savepoint", name, "error", rbErr)
		}
		return err
	}

	if _, err := outer.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// GetTx returns the transaction carried by ctx, or nil outside one.
func (m *TxManager) GetTx(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok {
		return t
	}
	return nil
}

// Querier is the query surface shared by the pool and a transaction.
// Repositories depend on it so a method behaves the same whether it is
// called inside a posting transaction or standalone.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier resolves to the context transaction when present and the
// pool otherwise.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t.Tx
	}
	return m.pool
}

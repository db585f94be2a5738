package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyInto bulk-inserts rows into table over the COPY protocol. The
// ledger uses it when posting writes many entries at once. COPY only
// works on a dedicated connection, so the context must carry an open
// transaction.
func CopyInto(ctx context.Context, txm *TxManager, table string, columns []string, rows [][]any) (int64, error) {
	t := txm.GetTx(ctx)
	if t == nil {
		return 0, fmt.Errorf("copy into %s: no transaction in context", table)
	}
	return t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

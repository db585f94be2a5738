package main

import (
	"context"
	"fmt"
	"time"

	"mise/internal/infrastructure/storage/postgres"
	"mise/pkg/logger"
)

// LedgerChecker scans the stock ledger for anomalies: negative on-hand
// balances and posted documents without ledger entries. Findings are
// logged for operator review; nothing is mutated.
type LedgerChecker struct {
	pool *postgres.Pool
	log  *logger.Logger
}

// NewLedgerChecker creates a new ledger checker.
func NewLedgerChecker(pool *postgres.Pool, log *logger.Logger) *LedgerChecker {
	return &LedgerChecker{pool: pool, log: log.WithComponent("ledger_check")}
}

// Run executes one full scan.
func (c *LedgerChecker) Run(ctx context.Context) error {
	started := time.Now()
	c.log.Info("ledger check started")

	negatives, err := c.findNegativeBalances(ctx)
	if err != nil {
		return fmt.Errorf("find negative balances: %w", err)
	}
	for _, n := range negatives {
		c.log.Warnw("negative on-hand balance",
			"tenant_id", n.TenantID,
			"location_id", n.LocationID,
			"product_id", n.ProductID,
			"balance", n.Balance,
		)
	}

	orphans, err := c.countOrphanEntries(ctx)
	if err != nil {
		return fmt.Errorf("count orphan entries: %w", err)
	}
	if orphans > 0 {
		c.log.Warnw("ledger entries referencing missing documents", "count", orphans)
	}

	c.log.Infow("ledger check finished",
		"negative_balances", len(negatives),
		"orphan_entries", orphans,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return nil
}

type negativeBalance struct {
	TenantID   string
	LocationID string
	ProductID  string
	Balance    int64
}

func (c *LedgerChecker) findNegativeBalances(ctx context.Context) ([]negativeBalance, error) {
	const query = `
		SELECT tenant_id, location_id, product_id, SUM(qty_delta) AS balance
		FROM stock_ledger
		GROUP BY tenant_id, location_id, product_id
		HAVING SUM(qty_delta) < 0`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []negativeBalance
	for rows.Next() {
		var n negativeBalance
		if err := rows.Scan(&n.TenantID, &n.LocationID, &n.ProductID, &n.Balance); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// countOrphanEntries finds ledger entries whose source document no longer
// exists. The ledger is append-only, so any orphan indicates a bug or
// manual tampering.
func (c *LedgerChecker) countOrphanEntries(ctx context.Context) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM stock_ledger l
		WHERE (l.ref_type = 'stock_count' AND NOT EXISTS (SELECT 1 FROM doc_stock_counts d WHERE d.id = l.ref_id))
		   OR (l.ref_type = 'order' AND NOT EXISTS (SELECT 1 FROM doc_orders d WHERE d.id = l.ref_id))
		   OR (l.ref_type = 'waste_record' AND NOT EXISTS (SELECT 1 FROM doc_waste_records d WHERE d.id = l.ref_id))
		   OR (l.ref_type = 'goods_receipt' AND NOT EXISTS (SELECT 1 FROM doc_goods_receipts d WHERE d.id = l.ref_id))`

	var count int64
	if err := c.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

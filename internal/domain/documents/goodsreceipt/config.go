package goodsreceipt

import "mise/internal/core/numerator"

const (
	// NumberPrefix for generated document numbers.
	NumberPrefix = "GR"

	// NumeratorStrategy is Strict: receipts feed cost accounting.
	NumeratorStrategy = numerator.StrategyStrict
)

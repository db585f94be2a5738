package waste

import "mise/internal/core/numerator"

const (
	// NumberPrefix for generated document numbers.
	NumberPrefix = "WST"

	// NumeratorStrategy is Strict: write-offs are audited.
	NumeratorStrategy = numerator.StrategyStrict
)

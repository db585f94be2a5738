package stockcount

import "mise/internal/core/numerator"

const (
	// NumberPrefix for generated document numbers.
	NumberPrefix = "SC"

	// NumeratorStrategy is Strict: count sheets are audited documents,
	// gaps in numbering raise questions.
	NumeratorStrategy = numerator.StrategyStrict
)

package order

import "mise/internal/core/numerator"

const (
	// NumberPrefix for generated document numbers.
	NumberPrefix = "ORD"

	// NumeratorStrategy is Cached: orders are high-volume and gaps in
	// numbering are acceptable.
	NumeratorStrategy = numerator.StrategyCached
)

// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Strategy picks how numbers are allocated against the database.
type Strategy int

const (
	// StrategyStrict takes one number per round-trip. Sequences come
	// out gapless, which audited documents like stock counts need.
	StrategyStrict Strategy = iota

	// StrategyCached reserves a range and serves it from memory. Far
	// fewer round-trips for high-volume documents like orders, but a
	// restart abandons the rest of the range and leaves a gap.
	StrategyCached
)

// Options tunes one number-generation call.
type Options struct {
	Strategy Strategy

	// RangeSize is how many numbers a cached reservation takes at
	// once. Zero means the implementation default of 50.
	RangeSize int64
}

// DefaultOptions is the strict strategy.
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config describes one document kind's numbering scheme.
type Config struct {
	// Prefix such as "SC", "ORD", "WST" or "GR".
	Prefix string

	// IncludeYear puts the period year into the number.
	IncludeYear bool

	// PadWidth is the minimum digit count, default 5.
	PadWidth int

	// ResetPeriod is "year", "month" or "never".
	ResetPeriod string
}

// DefaultConfig numbers yearly with five digits.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

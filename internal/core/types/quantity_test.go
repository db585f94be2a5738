package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityParsing(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{"0", 0},
		{"1", 1_000_000},
		{"2.5", 2_500_000},
		{"-3.25", -3_250_000},
		{"0.000001", 1},
		{"10.123456", 10_123_456},
	}
	for _, tt := range tests {
		got, err := NewQuantityFromString(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestQuantityParsingRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1,5"} {
		_, err := NewQuantityFromString(in)
		assert.Error(t, err, in)
	}
}

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "2.500000", MustQuantity("2.5").String())
	assert.Equal(t, "-0.250000", MustQuantity("-0.25").String())
	assert.Equal(t, "0.000000", Quantity(0).String())
}

func TestQuantityArithmetic(t *testing.T) {
	a := MustQuantity("10.5")
	b := MustQuantity("4.2")

	assert.Equal(t, MustQuantity("14.7"), a.Add(b))
	assert.Equal(t, MustQuantity("6.3"), a.Sub(b))
	assert.Equal(t, MustQuantity("-10.5"), a.Neg())
	assert.Equal(t, MustQuantity("10.5"), a.Neg().Abs())

	assert.True(t, a.IsPositive())
	assert.True(t, a.Neg().IsNegative())
	assert.True(t, a.Sub(a).IsZero())
}

func TestQuantityExactSums(t *testing.T) {
	// 0.1 added ten times must equal exactly 1 (fixed point, not float).
	var sum Quantity
	tenth := MustQuantity("0.1")
	for i := 0; i < 10; i++ {
		sum = sum.Add(tenth)
	}
	assert.Equal(t, MustQuantity("1"), sum)
}

func TestQuantityJSON(t *testing.T) {
	data, err := json.Marshal(MustQuantity("2.5"))
	require.NoError(t, err)
	assert.Equal(t, "2.500000", string(data))

	var fromNumber Quantity
	require.NoError(t, json.Unmarshal([]byte("3.25"), &fromNumber))
	assert.Equal(t, MustQuantity("3.25"), fromNumber)

	var fromString Quantity
	require.NoError(t, json.Unmarshal([]byte(`"-1.5"`), &fromString))
	assert.Equal(t, MustQuantity("-1.5"), fromString)

	var fromNull Quantity = 7
	require.NoError(t, json.Unmarshal([]byte("null"), &fromNull))
	assert.True(t, fromNull.IsZero())
}

func TestQuantityDecimal(t *testing.T) {
	d := MustQuantity("2.5").Decimal()
	assert.Equal(t, "2.5", d.String())
}

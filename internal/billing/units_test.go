package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecondsToHours(t *testing.T) {
	assert.Equal(t, "1.5", SecondsToHours(5400).String())
	assert.Equal(t, "0.1", SecondsToHours(360).String())
	assert.Equal(t, "0", SecondsToHours(0).String())
}

func TestBlocksFor(t *testing.T) {
	cases := []struct {
		usage  string
		blocks int64
	}{
		{"0", 0},
		{"0.0001", 0},
		{"0.999", 0},
		{"1.0", 1},
		{"250.0", 1},
		{"250.1", 2},
		{"500", 2},
		{"500.0001", 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.blocks, BlocksFor(MustDecimal(tc.usage), 250), "usage=%s", tc.usage)
	}
}

func TestCost(t *testing.T) {
	assert.Equal(t, float64(15), Cost(NewDecimalFromInt64(100), MustDecimal("0.15")).Float64())
	assert.Equal(t, 0.15, Cost(NewDecimalFromInt64(1), MustDecimal("0.15")).Float64())
	assert.Equal(t, "1.80", Cost(NewDecimalFromInt64(12), MustDecimal("0.15")).String())
	assert.Equal(t, 0, Cost(NewDecimalFromInt64(12), MustDecimal("0.15")).Cmp(MustDecimal("1.8")))
}

func TestToGB(t *testing.T) {
	assert.Equal(t, "1", ToGB(NewDecimalFromInt64(BytesPerGB), BytesPerGB).String())
	assert.Equal(t, "0.5", ToGB(NewDecimalFromInt64(500), MBPerGB).String())
}

func TestDecimalScanValue(t *testing.T) {
	var d Decimal
	assert.NoError(t, d.Scan("0.15"))
	assert.Equal(t, "0.15", d.String())

	assert.NoError(t, d.Scan([]byte("2.50")))
	assert.Equal(t, 2.5, d.Float64())

	assert.NoError(t, d.Scan(int64(7)))
	v, err := d.Value()
	assert.NoError(t, err)
	assert.Equal(t, "7", v)

	assert.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
}

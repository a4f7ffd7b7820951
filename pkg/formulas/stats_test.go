package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 71.5, Mean([]float64{70, 71, 72, 73}), 1e-9)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{5}))
	assert.InDelta(t, 1.2910, StdDev([]float64{70, 71, 72, 73}), 1e-4)
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{72.5, 68.1, 75.3})
	assert.Equal(t, 68.1, lo)
	assert.Equal(t, 75.3, hi)

	lo, hi = MinMax(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{65.4567, 2, 65.46},
		{65.4549, 2, 65.45},
		{-1.005, 1, -1.0},
		{1.23456, 4, 1.2346},
		{7.5, 0, 8},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round(tt.in, tt.places), 1e-9)
	}
}

func TestPercentChange(t *testing.T) {
	got, ok := PercentChange(80, 60)
	assert.True(t, ok)
	assert.InDelta(t, -25.0, got, 1e-9)

	_, ok = PercentChange(0, 60)
	assert.False(t, ok)
}

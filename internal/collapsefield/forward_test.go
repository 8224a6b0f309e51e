package collapsefield

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardMapTruncation(t *testing.T) {
	grid := NewZGrid(-4, 4, 0.25)
	fm := NewForwardMap(grid, 0.1, 20, 0.95)

	l := make([]float64, grid.Len())
	result := fm.Compute(0.5, 100.0, 0.02, l)

	require.Len(t, result.Entries, 5)
	wantMasses := []float64{0.5, 0.25, 0.125, 0.0625, 0.03125}
	for i, e := range result.Entries {
		assert.InDelta(t, wantMasses[i], e.Mass, 1e-9)
	}
	assert.InDelta(t, 0.96875, result.CumMass, 1e-9)
}

func TestForwardMapDistributionsSumToOne(t *testing.T) {
	grid := NewZGrid(-4, 4, 0.25)
	fm := NewForwardMap(grid, 0.5, 10, 0.95)

	l := make([]float64, grid.Len())
	for i := range l {
		l[i] = float64(i%7) - 3
	}
	result := fm.Compute(0.3, 100.0, 0.02, l)

	var totalMass float64
	for _, e := range result.Entries {
		var sum float64
		for _, v := range e.Dist {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		totalMass += e.Mass
	}
	assert.LessOrEqual(t, totalMass, 1.0+1e-9)
	assert.InDelta(t, totalMass, result.CumMass, 1e-9)
}

func TestForwardMapIsMemorylessAcrossCalls(t *testing.T) {
	grid := NewZGrid(-1, 1, 1)
	fm := NewForwardMap(grid, 0.0, 3, 0.95)
	l := make([]float64, grid.Len())

	first := fm.Compute(0.5, 100, 0.02, l)
	second := fm.Compute(0.5, 100, 0.02, l)

	assert.InDelta(t, first.CumMass, second.CumMass, 1e-12)
	assert.False(t, math.IsNaN(second.CumMass))
}

package collapsefield

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiquidityFieldFiniteAndBounded(t *testing.T) {
	grid := NewZGrid(-4, 4, 0.25)
	lf := NewLiquidityField(grid, LiquidityWeights{VWAP: 1.0, Bollinger: 1.0})

	components := []Component{
		{Kind: VwapRef, Price: 101.0},
		{Kind: BollingerMidRef, Price: 100.0},
		{Kind: BollingerUpperRef, Price: 103.0},
		{Kind: BollingerLowerRef, Price: 97.0},
	}

	l := lf.Compute(math.Log(100.0), 0.02, components)

	require.Len(t, l, grid.Len())
	for _, v := range l {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		assert.GreaterOrEqual(t, v, -6.0)
		assert.LessOrEqual(t, v, 6.0)
	}
}

func TestLiquidityFieldPoolProximityIsCenterValue(t *testing.T) {
	grid := NewZGrid(-4, 4, 0.25)
	lf := NewLiquidityField(grid, LiquidityWeights{VWAP: 1.0, Bollinger: 1.0})
	l := lf.Compute(math.Log(100.0), 0.02, []Component{{Kind: VwapRef, Price: 100.0}})

	assert.Equal(t, l[grid.Center()], lf.PoolProximity(l))
}

func TestLiquidityFieldDegenerateMADFallsBackToUnitDivisor(t *testing.T) {
	grid := NewZGrid(-1, 1, 1)
	lf := NewLiquidityField(grid, LiquidityWeights{VWAP: 1.0, Bollinger: 1.0})
	// No components: total is all zeros, MAD is zero, must not divide by zero.
	l := lf.Compute(math.Log(100.0), 0.02, nil)
	for _, v := range l {
		assert.False(t, math.IsNaN(v))
	}
}

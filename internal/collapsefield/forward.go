package collapsefield

import "math"

// ForwardEntry is one horizon's geometric-survival mass and liquidity-tilted
// distribution over the z-grid.
type ForwardEntry struct {
	K    int
	Mass float64
	Dist []float64
}

// ForwardResult is the full output of one ForwardMap.Compute call.
type ForwardResult struct {
	Entries []ForwardEntry
	CumMass float64
}

// ForwardMap produces P(tau, z): a geometric-survival weighting over
// integer horizons combined with a liquidity-field-tilted Gaussian shape
// over the z-grid, truncated once cumulative mass crosses a threshold.
type ForwardMap struct {
	grid          ZGrid
	betaL         float64
	maxHorizon    int
	massThreshold float64
}

// NewForwardMap builds a map over the given grid with the configured tilt
// strength, horizon cap, and truncation threshold.
func NewForwardMap(grid ZGrid, betaL float64, maxHorizon int, massThreshold float64) *ForwardMap {
	return &ForwardMap{grid: grid, betaL: betaL, maxHorizon: maxHorizon, massThreshold: massThreshold}
}

// Compute is memoryless across calls: survival resets to 1 at entry.
// currentPrice and currentSigma are accepted for interface parity with
// the feature set that feeds every other collapse-field stage, but are
// unused: lambda sets only the geometric masses, and the per-horizon shape
// depends only on the liquidity field and betaL; it does not broaden with k.
func (f *ForwardMap) Compute(currentLambda, currentPrice, currentSigma float64, lTotal []float64) ForwardResult {
	values := f.grid.Values()
	h0 := make([]float64, len(values))
	for i, z := range values {
		h0[i] = math.Exp(-0.5*z*z) / math.Sqrt(2*math.Pi)
	}

	var entries []ForwardEntry
	survival := 1.0
	cumMass := 0.0

	for k := 1; k <= f.maxHorizon; k++ {
		massK := currentLambda * survival
		survival *= 1 - currentLambda
		cumMass += massK

		dist := make([]float64, len(values))
		var sum float64
		for i := range values {
			dist[i] = h0[i] * math.Exp(f.betaL*lTotal[i])
			sum += dist[i]
		}
		if sum > 0 {
			for i := range dist {
				dist[i] /= sum
			}
		}

		entries = append(entries, ForwardEntry{K: k, Mass: massK, Dist: dist})

		if cumMass >= f.massThreshold {
			break
		}
	}

	return ForwardResult{Entries: entries, CumMass: cumMass}
}

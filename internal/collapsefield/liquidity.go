package collapsefield

import "math"

// ComponentKind is a closed tag for the reference levels LiquidityField
// accepts. New reference kinds are additive variants rather than new
// free-form string keys.
type ComponentKind int

const (
	VwapRef ComponentKind = iota
	BollingerMidRef
	BollingerUpperRef
	BollingerLowerRef
	KijunRef
)

type liquidityGroup int

const (
	groupVWAP liquidityGroup = iota
	groupBollinger
	groupOther
)

// defaults returns the per-kind inner weight, Gaussian bandwidth, and the
// outer group this kind rolls up into for group weighting.
func (k ComponentKind) defaults() (weight, bandwidth float64, group liquidityGroup) {
	switch k {
	case VwapRef:
		return 1.0, 0.35, groupVWAP
	case BollingerMidRef:
		return 1.0, 0.30, groupBollinger
	case BollingerUpperRef:
		return 0.7, 0.30, groupBollinger
	case BollingerLowerRef:
		return 0.7, 0.30, groupBollinger
	case KijunRef:
		return 1.0, 0.35, groupOther
	default:
		return 1.0, 0.35, groupOther
	}
}

// Component is one reference level fed into LiquidityField.Compute: a
// price, its kind (which fixes the default inner weight/bandwidth/group),
// and optional overrides.
type Component struct {
	Kind      ComponentKind
	Price     float64
	Weight    float64 // 0 means "use the kind's default"
	Bandwidth float64 // 0 means "use the kind's default"
}

func (c Component) resolved() (weight, bandwidth float64, group liquidityGroup) {
	defW, defB, grp := c.Kind.defaults()
	weight, bandwidth = defW, defB
	if c.Weight != 0 {
		weight = c.Weight
	}
	if c.Bandwidth != 0 {
		bandwidth = c.Bandwidth
	}
	return weight, bandwidth, grp
}

// LiquidityWeights are the configured outer group weights. Groups not
// covered here (e.g. a KijunRef) default to weight 1.0.
type LiquidityWeights struct {
	VWAP      float64
	Bollinger float64
}

// LiquidityField computes the kernel-weighted, robust-standardized
// liquidity density L(z) over a fixed ZGrid.
type LiquidityField struct {
	grid    ZGrid
	weights LiquidityWeights
}

// NewLiquidityField builds a field over the given grid with the configured
// outer group weights.
func NewLiquidityField(grid ZGrid, weights LiquidityWeights) *LiquidityField {
	return &LiquidityField{grid: grid, weights: weights}
}

func (lf *LiquidityField) outerWeight(group liquidityGroup) float64 {
	switch group {
	case groupVWAP:
		return lf.weights.VWAP
	case groupBollinger:
		return lf.weights.Bollinger
	default:
		return 1.0
	}
}

// Compute returns L(z) for the given components, robust-standardized and
// clipped to [-6, 6]. Stateless other than the fixed grid/weights.
func (lf *LiquidityField) Compute(currentLogPrice, sigma float64, components []Component) []float64 {
	n := lf.grid.Len()
	grouped := map[liquidityGroup][]float64{}

	for _, c := range components {
		if c.Price <= 0 {
			continue
		}
		weight, bandwidth, group := c.resolved()
		zc := (math.Log(c.Price) - currentLogPrice) / sigma

		acc, ok := grouped[group]
		if !ok {
			acc = make([]float64, n)
			grouped[group] = acc
		}
		values := lf.grid.Values()
		for i, z := range values {
			acc[i] += weight * gaussianKernel(z-zc, bandwidth)
		}
	}

	total := make([]float64, n)
	for group, acc := range grouped {
		w := lf.outerWeight(group)
		for i, v := range acc {
			total[i] += w * v
		}
	}

	return robustStandardizeClip(total, -6, 6)
}

// PoolProximity returns L evaluated at z = 0.
func (lf *LiquidityField) PoolProximity(l []float64) float64 {
	return l[lf.grid.Center()]
}

func robustStandardizeClip(values []float64, lo, hi float64) []float64 {
	med := percentile(values, 50)
	absDev := make([]float64, len(values))
	for i, v := range values {
		absDev[i] = math.Abs(v - med)
	}
	mad := percentile(absDev, 50)
	if mad <= 1e-9 {
		mad = 1.0
	}

	out := make([]float64, len(values))
	for i, v := range values {
		z := (v - med) / mad
		if z < lo {
			z = lo
		} else if z > hi {
			z = hi
		}
		out[i] = z
	}
	return out
}

// Package collapsefield implements the per-symbol numerical core: the
// incremental technical-indicator engine and the collapse-field stages
// (liquidity field, particle mapper, dealer filter, hazard model, forward
// map) described for a single symbol's tick stream.
package collapsefield

import "math"

// ZGrid is a fixed, immutable ordered sequence of standardized log-price
// offsets spanning [min, max] at a constant step. It is built once from
// config and shared by reference across every symbol's LiquidityField and
// ForwardMap.
type ZGrid struct {
	values []float64
	center int
}

// NewZGrid builds a grid from min to max (inclusive) at the given step.
// Matches the default -4.0..+4.0 step 0.25 -> 33 points.
func NewZGrid(min, max, step float64) ZGrid {
	var values []float64
	for v := min; v <= max+step/2; v += step {
		values = append(values, v)
	}
	return ZGrid{values: values, center: (len(values) - 1) / 2}
}

// Values returns the grid points in order.
func (g ZGrid) Values() []float64 { return g.values }

// Len returns the number of grid points.
func (g ZGrid) Len() int { return len(g.values) }

// Center returns the index of z = 0 (the grid's midpoint).
func (g ZGrid) Center() int { return g.center }

// gaussianKernel evaluates exp(-0.5 * (u/bandwidth)^2).
func gaussianKernel(u, bandwidth float64) float64 {
	x := u / bandwidth
	return math.Exp(-0.5 * x * x)
}

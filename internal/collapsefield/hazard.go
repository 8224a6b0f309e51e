package collapsefield

import "math"

// HazardCoeffs are the configured logistic coefficients for HazardModel.
type HazardCoeffs struct {
	A       float64
	PL      float64
	Squeeze float64
	Pool    float64
}

// HazardModel computes a logistic instantaneous regime-change hazard from a
// small, regime-indexed feature vector. It carries no state of its own; all
// memory lives in the ichimoku state and particle annihilation it is fed.
type HazardModel struct {
	intercepts [3]float64
	coeffs     HazardCoeffs
}

// NewHazardModel builds a model with three regime-indexed intercepts
// (index 0 = neutral, 1 = bullish cloud state, 2 = bearish) and shared
// coefficients.
func NewHazardModel(intercepts [3]float64, coeffs HazardCoeffs) *HazardModel {
	return &HazardModel{intercepts: intercepts, coeffs: coeffs}
}

// Compute returns lambda in (0, 1). regimeState is the ichimoku cloud
// state (+1/-1/0). dVWAP and dKijun are accepted for forward
// compatibility with a richer feature set but are not yet used by the
// logit.
func (h *HazardModel) Compute(regimeState int, A, pressureInertiaRatio float64, squeeze bool, poolProximity, dVWAP, dKijun float64) float64 {
	idx := 0
	switch {
	case regimeState == 1:
		idx = 1
	case regimeState == -1:
		idx = 2
	}

	squeezeTerm := 0.0
	if squeeze {
		squeezeTerm = 1.0
	}

	logit := h.intercepts[idx] +
		h.coeffs.A*A +
		h.coeffs.PL*pressureInertiaRatio +
		h.coeffs.Squeeze*squeezeTerm +
		h.coeffs.Pool*poolProximity

	return 1 / (1 + math.Exp(-logit))
}

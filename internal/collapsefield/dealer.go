package collapsefield

import "math"

// DealerResult is the per-tick output of DealerFilter.
type DealerResult struct {
	P        float64
	Q        float64
	Feedback float64
}

// DealerFilter is a two-state Bayesian filter in logit space estimating the
// probability p that dealers are net long exposure, with a confidence q
// that saturates as p moves away from one half.
type DealerFilter struct {
	stayProb float64
	flipProb float64
	p        float64
	q        float64
}

// NewDealerFilter builds a filter initialized at p = q = 0.5.
func NewDealerFilter(stayProb, flipProb float64) *DealerFilter {
	return &DealerFilter{stayProb: stayProb, flipProb: flipProb, p: 0.5, q: 0.5}
}

// Update folds in one tick's standardized feature vector, the absolute
// normalized GEX, and a staleness flag, and returns the updated (p, q,
// feedback).
func (d *DealerFilter) Update(zFeatures []float64, absGEXNorm float64, isStale bool) DealerResult {
	var evidence float64
	for _, z := range zFeatures {
		evidence += z
	}

	pPrior := d.p*d.stayProb + (1-d.p)*d.flipProb
	logitPost := math.Log(pPrior/(1-pPrior+1e-9)) - evidence
	d.p = 1 / (1 + math.Exp(-logitPost))
	d.q = 1 / (1 + math.Exp(-(1.0 + 2.0*math.Abs(2*d.p-1))))

	feedback := (2*d.p - 1) * absGEXNorm * d.q
	if isStale {
		feedback *= 0.3
	}

	return DealerResult{P: d.p, Q: d.q, Feedback: feedback}
}

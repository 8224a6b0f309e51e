package collapsefield

import "math"

const (
	bollingerWindow   = 20
	squeezeWindow     = 2 * 390 // two trading days of 1-minute bars
	rsiWindow         = 14
	squeezeMinFill    = 50
	squeezePercentile = 15.0
)

// Bollinger holds the Bollinger-band outputs for one tick.
type Bollinger struct {
	MB      float64
	UB      float64
	LB      float64
	Width   float64
	Squeeze bool
}

// TechnicalsResult is the per-tick output of TechnicalsAccumulator.
type TechnicalsResult struct {
	VWAP          float64
	RSINormalized float64
	BB            Bollinger
}

// TechnicalsAccumulator maintains VWAP, Bollinger bands with squeeze
// detection, and RSI incrementally, owned by one SymbolProcessor.
type TechnicalsAccumulator struct {
	vwapNum   float64
	vwapDenom float64

	prices *ringBuffer
	widths *ringBuffer

	gains, losses *ringBuffer
	lastPrice     float64
	hasLast       bool
}

// NewTechnicalsAccumulator constructs an accumulator with the standard
// window sizes: 20-bar Bollinger, two-day squeeze buffer, 14-bar RSI.
func NewTechnicalsAccumulator() *TechnicalsAccumulator {
	return &TechnicalsAccumulator{
		prices: newRingBuffer(bollingerWindow),
		widths: newRingBuffer(squeezeWindow),
		gains:  newRingBuffer(rsiWindow),
		losses: newRingBuffer(rsiWindow),
	}
}

// Update folds in one bar's close and volume.
func (t *TechnicalsAccumulator) Update(price, volume float64) TechnicalsResult {
	t.vwapNum += price * volume
	t.vwapDenom += volume
	vwap := price
	if t.vwapDenom != 0 {
		vwap = t.vwapNum / t.vwapDenom
	}

	bb := t.updateBollinger(price)

	var delta float64
	if t.hasLast {
		delta = price - t.lastPrice
	}
	t.lastPrice = price
	t.hasLast = true
	t.gains.push(math.Max(delta, 0))
	t.losses.push(math.Max(-delta, 0))
	rsi := t.computeRSINormalized()

	return TechnicalsResult{VWAP: vwap, RSINormalized: rsi, BB: bb}
}

func (t *TechnicalsAccumulator) updateBollinger(price float64) Bollinger {
	t.prices.push(price)
	if !t.prices.isFull() {
		// Widths only enter the squeeze buffer once the Bollinger window
		// itself is full; a pre-warmup width is not a real measurement.
		return Bollinger{MB: price, UB: price, LB: price, Width: 0, Squeeze: false}
	}

	values := t.prices.values()
	mb := mean(values)
	var variance float64
	for _, v := range values {
		d := v - mb
		variance += d * d
	}
	variance /= float64(len(values))
	sd := math.Sqrt(variance)
	ub := mb + 2*sd
	lb := mb - 2*sd
	width := 0.0
	if mb != 0 {
		width = (ub - lb) / mb
	}
	t.widths.push(width)

	squeeze := false
	if t.widths.len() >= squeezeMinFill {
		squeeze = width <= percentile(t.widths.values(), squeezePercentile)
	}

	return Bollinger{MB: mb, UB: ub, LB: lb, Width: width, Squeeze: squeeze}
}

func (t *TechnicalsAccumulator) computeRSINormalized() float64 {
	if !t.gains.isFull() || !t.losses.isFull() {
		return 0
	}
	avgGain := mean(t.gains.values())
	avgLoss := mean(t.losses.values())

	var rsi float64
	switch {
	case avgLoss == 0 && avgGain > 0:
		rsi = 100
	case avgLoss == 0:
		rsi = 50
	default:
		rsi = 100 - 100/(1+avgGain/avgLoss)
	}
	return (rsi - 50) / 50
}

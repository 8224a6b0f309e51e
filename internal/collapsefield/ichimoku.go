package collapsefield

import "math"

const (
	tenkanWindow   = 9
	kijunWindow    = 26
	spanBWindow    = 52
	cloudLag       = 26
	spanHistoryCap = 60
)

// IchimokuResult is the per-tick output of IchimokuAccumulator.
type IchimokuResult struct {
	Tenkan float64
	Kijun  float64
	SpanA  float64
	SpanB  float64
	State  int     // +1 above cloud, -1 below, 0 inside
	Thick  float64 // |cloud_a - cloud_b|
}

// IchimokuAccumulator maintains the bounded high/low windows and the lagged
// cloud history needed to classify price against the Ichimoku cloud.
type IchimokuAccumulator struct {
	highs9, lows9   *ringBuffer
	highs26, lows26 *ringBuffer
	highs52, lows52 *ringBuffer

	spanAHistory, spanBHistory *ringBuffer
}

// NewIchimokuAccumulator constructs an accumulator with the standard
// 9/26/52 windows and a 60-entry lagged-cloud history.
func NewIchimokuAccumulator() *IchimokuAccumulator {
	return &IchimokuAccumulator{
		highs9:  newRingBuffer(tenkanWindow),
		lows9:   newRingBuffer(tenkanWindow),
		highs26: newRingBuffer(kijunWindow),
		lows26:  newRingBuffer(kijunWindow),
		highs52: newRingBuffer(spanBWindow),
		lows52:  newRingBuffer(spanBWindow),

		spanAHistory: newRingBuffer(spanHistoryCap),
		spanBHistory: newRingBuffer(spanHistoryCap),
	}
}

// Update folds in one bar's high, low and close.
func (ic *IchimokuAccumulator) Update(high, low, close float64) IchimokuResult {
	ic.highs9.push(high)
	ic.lows9.push(low)
	ic.highs26.push(high)
	ic.lows26.push(low)
	ic.highs52.push(high)
	ic.lows52.push(low)

	tenkan := (maxOf(ic.highs9.values()) + minOf(ic.lows9.values())) / 2
	kijun := (maxOf(ic.highs26.values()) + minOf(ic.lows26.values())) / 2
	spanANow := (tenkan + kijun) / 2
	spanBNow := (maxOf(ic.highs52.values()) + minOf(ic.lows52.values())) / 2

	ic.spanAHistory.push(spanANow)
	ic.spanBHistory.push(spanBNow)

	cloudA, cloudB := spanANow, spanBNow
	aHist := ic.spanAHistory.values()
	bHist := ic.spanBHistory.values()
	if len(aHist) >= cloudLag {
		cloudA = aHist[len(aHist)-cloudLag]
		cloudB = bHist[len(bHist)-cloudLag]
	}

	state := 0
	switch {
	case close > math.Max(cloudA, cloudB):
		state = 1
	case close < math.Min(cloudA, cloudB):
		state = -1
	}

	return IchimokuResult{
		Tenkan: tenkan,
		Kijun:  kijun,
		SpanA:  spanANow,
		SpanB:  spanBNow,
		State:  state,
		Thick:  math.Abs(cloudA - cloudB),
	}
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

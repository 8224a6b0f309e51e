// Package provider defines the DataProvider contract the analytics core
// consumes, plus a synthetic demo implementation and a resilience-wrapped
// adapter for a real upstream.
package provider

import "time"

// BarTick is a closed one-minute bar.
type BarTick struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Quote is a top-of-book snapshot.
type Quote struct {
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
}

// Spread returns ask - bid.
func (q Quote) Spread() float64 { return q.Ask - q.Bid }

// OptionsSummary is an optional per-tick options-derived signal.
type OptionsSummary struct {
	AbsGEXNorm float64
	Stale      bool
}

// FlowSummary is an optional per-tick order-flow signal, each field already
// standardized.
type FlowSummary struct {
	OFIZ         float64
	FlowImpulseZ float64
	SweepRate    float64
	Shock        float64
}

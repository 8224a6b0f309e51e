package provider

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// DemoProvider is a synthetic random-walk DataProvider. It is useful for
// local runs and as the fixture behind processor and scheduler tests when
// no real upstream is configured.
type DemoProvider struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64
}

// NewDemoProvider seeds every symbol at a starting price of 100.
func NewDemoProvider(seed int64) *DemoProvider {
	return &DemoProvider{
		rng:    rand.New(rand.NewSource(seed)),
		prices: make(map[string]float64),
	}
}

func (d *DemoProvider) priceFor(symbol string) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	price, ok := d.prices[symbol]
	if !ok {
		price = 100.0
	}
	price *= math.Exp(d.rng.NormFloat64() * 0.001)
	d.prices[symbol] = price
	return price
}

// GetLatestBar synthesizes a closed one-minute bar around a random walk.
func (d *DemoProvider) GetLatestBar(ctx context.Context, symbol string) (*BarTick, error) {
	closePx := d.priceFor(symbol)
	openPx := closePx * (1 + d.rng.NormFloat64()*0.0005)
	high := math.Max(openPx, closePx) * (1 + math.Abs(d.rng.NormFloat64())*0.0005)
	low := math.Min(openPx, closePx) * (1 - math.Abs(d.rng.NormFloat64())*0.0005)
	volume := 500 + d.rng.Float64()*1000

	return &BarTick{
		Timestamp: time.Now(),
		Open:      openPx,
		High:      high,
		Low:       low,
		Close:     closePx,
		Volume:    volume,
	}, nil
}

// GetQuotes synthesizes a tight top-of-book quote around the last price.
func (d *DemoProvider) GetQuotes(ctx context.Context, symbol string) (*Quote, error) {
	d.mu.Lock()
	mid, ok := d.prices[symbol]
	d.mu.Unlock()
	if !ok {
		mid = 100.0
	}

	halfSpread := mid * 0.0002
	return &Quote{
		Bid:     mid - halfSpread,
		Ask:     mid + halfSpread,
		BidSize: 10 + d.rng.Float64()*50,
		AskSize: 10 + d.rng.Float64()*50,
	}, nil
}

// GetOptionsChain returns a synthetic abs-GEX reading, never stale.
func (d *DemoProvider) GetOptionsChain(ctx context.Context, symbol string) (*OptionsSummary, error) {
	return &OptionsSummary{AbsGEXNorm: math.Abs(d.rng.NormFloat64()), Stale: false}, nil
}

// GetFlow returns synthetic standardized flow z-scores.
func (d *DemoProvider) GetFlow(ctx context.Context, symbol string) (*FlowSummary, error) {
	return &FlowSummary{
		OFIZ:         d.rng.NormFloat64(),
		FlowImpulseZ: d.rng.NormFloat64(),
		SweepRate:    d.rng.Float64(),
		Shock:        d.rng.NormFloat64() * 0.1,
	}, nil
}

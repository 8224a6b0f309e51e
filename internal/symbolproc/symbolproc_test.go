package symbolproc

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collapsefield/marketfield/internal/collapsefield"
	"github.com/collapsefield/marketfield/internal/config"
	"github.com/collapsefield/marketfield/internal/provider"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Dealer.StayProb = 0.9
	cfg.Dealer.FlipProb = 0.1
	cfg.Hazard.Intercepts = [3]float64{-2, -1.5, -1.5}
	cfg.Hazard.Coeffs = config.HazardCoeffsConfig{A: 0.5, PL: 0.1, Squeeze: 0.3, Pool: 0.2}
	cfg.Forward.BetaL = 0.2
	return cfg
}

func bar(close float64, ts time.Time) provider.BarTick {
	return provider.BarTick{
		Timestamp: ts,
		Open:      close,
		High:      close * 1.0005,
		Low:       close * 0.9995,
		Close:     close,
		Volume:    1000,
	}
}

func TestProcessFlatMarketProducesFiniteSnapshot(t *testing.T) {
	p := New("FLAT", testConfig())
	now := time.Now()

	var snap Snapshot
	for i := 0; i < 50; i++ {
		snap = p.Process(bar(100, now.Add(time.Duration(i)*time.Minute)), nil, nil, nil)
	}

	assert.InDelta(t, collapsefield.MinSigma, snap.Sigma, 1e-5)
	assert.Equal(t, 0.0, snap.BBWidth)
	assert.False(t, snap.BBSqueeze)
	assert.Len(t, snap.PoolField, 33)
	for _, v := range snap.PoolField {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	require.NotEmpty(t, snap.ForwardMap.Entries)
}

func TestProcessOrderingIsNonDecreasingTimestamp(t *testing.T) {
	p := New("ORD", testConfig())
	base := time.Now()

	var last time.Time
	for i := 0; i < 10; i++ {
		snap := p.Process(bar(100+float64(i), base.Add(time.Duration(i)*time.Minute)), nil, nil, nil)
		assert.True(t, !snap.Timestamp.Before(last))
		last = snap.Timestamp
	}
}

func TestProcessUsesDealerDefaultsWithoutOptions(t *testing.T) {
	p := New("NODEAL", testConfig())
	snap := p.Process(bar(100, time.Now()), nil, nil, nil)
	assert.Equal(t, 0.5, snap.DealerP)
	assert.Equal(t, 0.5, snap.DealerQ)
	assert.Equal(t, 0.0, snap.DealerFeedback)
}

func TestProcessCallsDealerWhenOptionsPresent(t *testing.T) {
	p := New("DEAL", testConfig())
	opts := &provider.OptionsSummary{AbsGEXNorm: 1.0, Stale: false}
	flow := &provider.FlowSummary{OFIZ: 3, FlowImpulseZ: 3}

	var snap Snapshot
	for i := 0; i < 5; i++ {
		snap = p.Process(bar(100, time.Now().Add(time.Duration(i)*time.Minute)), nil, opts, flow)
	}
	assert.Less(t, snap.DealerP, 0.5)
	assert.Greater(t, snap.DealerQ, 0.5)
}

func TestSnapshotMarshalJSONNeverEmitsNaNOrInf(t *testing.T) {
	snap := Snapshot{
		Symbol:    "X",
		Timestamp: time.Now(),
		Sigma:     math.NaN(),
		VWAP:      math.Inf(1),
		PoolField: []float64{math.NaN(), math.Inf(-1), 1.5},
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["vwap"])

	pool := decoded["pool_field"].([]interface{})
	assert.Nil(t, pool[0])
	assert.Nil(t, pool[1])
	assert.Equal(t, 1.5, pool[2])
}

func TestRegistryCreatesAndRemovesProcessors(t *testing.T) {
	r := NewRegistry(testConfig())
	p1 := r.Get("AAA")
	p2 := r.Get("AAA")
	assert.Same(t, p1, p2)

	r.Get("BBB")
	assert.Len(t, r.Symbols(), 2)

	r.Remove("AAA")
	assert.Len(t, r.Symbols(), 1)
}

package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoProviderWalksFromSeed(t *testing.T) {
	d := NewDemoProvider(42)
	ctx := context.Background()

	bar, err := d.GetLatestBar(ctx, "BTC-USD")
	require.NoError(t, err)
	require.NotNil(t, bar)
	assert.GreaterOrEqual(t, bar.High, bar.Low)
	assert.Greater(t, bar.Close, 0.0)

	quote, err := d.GetQuotes(ctx, "BTC-USD")
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Greater(t, quote.Ask, quote.Bid)

	opts, err := d.GetOptionsChain(ctx, "BTC-USD")
	require.NoError(t, err)
	require.NotNil(t, opts)
	assert.False(t, opts.Stale)

	flow, err := d.GetFlow(ctx, "BTC-USD")
	require.NoError(t, err)
	require.NotNil(t, flow)
}

func TestDemoProviderTracksPerSymbolState(t *testing.T) {
	d := NewDemoProvider(7)
	ctx := context.Background()

	_, err := d.GetLatestBar(ctx, "AAA")
	require.NoError(t, err)
	_, err = d.GetLatestBar(ctx, "BBB")
	require.NoError(t, err)

	d.mu.Lock()
	_, hasA := d.prices["AAA"]
	_, hasB := d.prices["BBB"]
	d.mu.Unlock()
	assert.True(t, hasA)
	assert.True(t, hasB)
}

package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collapsefield/marketfield/internal/config"
)

type failingProvider struct {
	barErr error
}

func (f *failingProvider) GetLatestBar(ctx context.Context, symbol string) (*BarTick, error) {
	if f.barErr != nil {
		return nil, f.barErr
	}
	return &BarTick{Close: 100}, nil
}
func (f *failingProvider) GetQuotes(ctx context.Context, symbol string) (*Quote, error) {
	return &Quote{Bid: 99, Ask: 101}, nil
}
func (f *failingProvider) GetOptionsChain(ctx context.Context, symbol string) (*OptionsSummary, error) {
	return &OptionsSummary{}, nil
}
func (f *failingProvider) GetFlow(ctx context.Context, symbol string) (*FlowSummary, error) {
	return &FlowSummary{}, nil
}

func testBreakerConfig() (config.BreakerConfig, config.RateLimitConfig) {
	return config.BreakerConfig{
			ConsecutiveFailures: 2,
			ErrorRateThreshold:  0.5,
			OpenTimeout:         20 * time.Millisecond,
		}, config.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
		}
}

func TestBreakerAdapterPassesThroughOnSuccess(t *testing.T) {
	bc, rl := testBreakerConfig()
	a := NewBreakerAdapter(&failingProvider{}, bc, rl)

	bar, err := a.GetLatestBar(context.Background(), "BTC-USD")
	require.NoError(t, err)
	require.NotNil(t, bar)
	assert.Equal(t, 100.0, bar.Close)
}

func TestBreakerAdapterDegradesToAbsentOnFailure(t *testing.T) {
	bc, rl := testBreakerConfig()
	inner := &failingProvider{barErr: errors.New("upstream timeout")}
	a := NewBreakerAdapter(inner, bc, rl)
	ctx := context.Background()

	bar, err := a.GetLatestBar(ctx, "BTC-USD")
	assert.NoError(t, err)
	assert.Nil(t, bar)

	bar, err = a.GetLatestBar(ctx, "BTC-USD")
	assert.NoError(t, err)
	assert.Nil(t, bar)

	for i := 0; i < 5; i++ {
		bar, err = a.GetLatestBar(ctx, "BTC-USD")
		assert.NoError(t, err)
		assert.Nil(t, bar)
	}

	quote, err := a.GetQuotes(ctx, "BTC-USD")
	assert.NoError(t, err)
	assert.NotNil(t, quote)
}

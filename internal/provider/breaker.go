package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/collapsefield/marketfield/internal/config"
)

// BreakerAdapter wraps a real DataProvider with a per-capability circuit
// breaker and rate limiter. On a breaker trip, rate-limit wait timeout,
// or underlying error, every capability degrades to "absent this tick"
// (nil, nil) rather than returning an error: a flaky upstream must never
// hang or abort the scheduler.
type BreakerAdapter struct {
	inner    DataProvider
	limiter  *rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerAdapter builds an adapter with one breaker per capability
// (bar/quote/options/flow), sharing a single rate limiter across all of
// them for the provider as a whole.
func NewBreakerAdapter(inner DataProvider, cfg config.BreakerConfig, rl config.RateLimitConfig) *BreakerAdapter {
	a := &BreakerAdapter{
		inner:    inner,
		limiter:  rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, name := range []string{"bar", "quote", "options", "flow"} {
		a.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     name,
			Interval: 60 * time.Second,
			Timeout:  cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
					return true
				}
				if counts.Requests < 20 {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) > cfg.ErrorRateThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("provider_capability", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		})
	}
	return a
}

func execute[T any](a *BreakerAdapter, ctx context.Context, capability string, call func() (*T, error)) (*T, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, nil
	}

	result, err := a.breakers[capability].Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		log.Debug().Str("provider_capability", capability).Err(err).Msg("provider call absent this tick")
		return nil, nil
	}
	if result == nil {
		return nil, nil
	}
	return result.(*T), nil
}

// GetLatestBar calls through the bar breaker/limiter.
func (a *BreakerAdapter) GetLatestBar(ctx context.Context, symbol string) (*BarTick, error) {
	return execute(a, ctx, "bar", func() (*BarTick, error) { return a.inner.GetLatestBar(ctx, symbol) })
}

// GetQuotes calls through the quote breaker/limiter.
func (a *BreakerAdapter) GetQuotes(ctx context.Context, symbol string) (*Quote, error) {
	return execute(a, ctx, "quote", func() (*Quote, error) { return a.inner.GetQuotes(ctx, symbol) })
}

// GetOptionsChain calls through the options breaker/limiter.
func (a *BreakerAdapter) GetOptionsChain(ctx context.Context, symbol string) (*OptionsSummary, error) {
	return execute(a, ctx, "options", func() (*OptionsSummary, error) { return a.inner.GetOptionsChain(ctx, symbol) })
}

// GetFlow calls through the flow breaker/limiter.
func (a *BreakerAdapter) GetFlow(ctx context.Context, symbol string) (*FlowSummary, error) {
	return execute(a, ctx, "flow", func() (*FlowSummary, error) { return a.inner.GetFlow(ctx, symbol) })
}

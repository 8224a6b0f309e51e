// Package scheduler drives the per-symbol processors at a configured
// cadence and wires each result to persistence and broadcast. It is a
// single-threaded cooperative driver: symbols are processed sequentially
// within a tick-cycle, and provider/persistence/broadcast calls are the
// only suspension points, so no accumulator is ever touched concurrently.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/collapsefield/marketfield/internal/config"
	"github.com/collapsefield/marketfield/internal/metrics"
	"github.com/collapsefield/marketfield/internal/persistence"
	"github.com/collapsefield/marketfield/internal/provider"
	"github.com/collapsefield/marketfield/internal/symbolproc"
)

// SubscriberSink is the broadcast-side collaborator the driver publishes
// to. broadcast.Hub satisfies this.
type SubscriberSink interface {
	Publish(snap symbolproc.Snapshot) error
}

// LatestCacheWriter is the hot-cache side collaborator
// (rediscache.Cache satisfies this); nil is a legal "no cache configured"
// value.
type LatestCacheWriter interface {
	SetLatest(ctx context.Context, symbol string, payload []byte) error
}

// Scheduler owns the driver loop. It needs no locking: the registry,
// persistence and broadcast sink are only ever touched from the Run
// goroutine.
type Scheduler struct {
	registry   *symbolproc.Registry
	dataSource provider.DataProvider
	persist    persistence.SnapshotRepo
	cache      LatestCacheWriter
	sink       SubscriberSink
	cadence    config.CadenceConfig
	log        zerolog.Logger
	metrics    *metrics.Collectors

	// errs receives one entry per downstream failure that must not halt
	// the driver. Callers that don't care may leave it unread; the
	// channel is sized so a few pending errors never block a tick.
	errs chan error
}

// New builds a Scheduler. cache may be nil when no Redis hot-cache layer
// is configured.
func New(
	registry *symbolproc.Registry,
	dataSource provider.DataProvider,
	persist persistence.SnapshotRepo,
	cache LatestCacheWriter,
	sink SubscriberSink,
	cadence config.CadenceConfig,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		registry:   registry,
		dataSource: dataSource,
		persist:    persist,
		cache:      cache,
		sink:       sink,
		cadence:    cadence,
		log:        log,
		errs:       make(chan error, 32),
	}
}

// Errors returns the channel downstream failures are surfaced on. It is
// never closed.
func (s *Scheduler) Errors() <-chan error { return s.errs }

// WithMetrics attaches a prometheus collector set; passing nil disables
// metrics recording. Returns the Scheduler for chaining at construction.
func (s *Scheduler) WithMetrics(m *metrics.Collectors) *Scheduler {
	s.metrics = m
	return s
}

// Run drives tick-cycles at the configured cadence until ctx is canceled.
// Cancellation is honored at the next suspension point; the
// currently-running symbol's pipeline always finishes or aborts cleanly
// before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cadence.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one pass of every tracked symbol, sequentially.
func (s *Scheduler) tick(ctx context.Context) {
	for _, symbol := range s.registry.Symbols() {
		if ctx.Err() != nil {
			return
		}
		s.tickSymbol(ctx, symbol)
	}
}

// fetch bounds one provider call by the configured per-call timeout. A
// timed-out call reads as "absent this tick".
func fetch[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (*T, error)) (*T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return call(callCtx)
}

func (s *Scheduler) tickSymbol(ctx context.Context, symbol string) {
	start := time.Now()
	timeout := s.cadence.Timeout

	bar, err := fetch(ctx, timeout, func(c context.Context) (*provider.BarTick, error) {
		return s.dataSource.GetLatestBar(c, symbol)
	})
	if err != nil || bar == nil {
		// Input-absent or upstream error: skip this tick, the symbol's
		// state is untouched and no snapshot is emitted.
		if s.metrics != nil {
			s.metrics.TicksSkipped.WithLabelValues(symbol).Inc()
		}
		return
	}

	quote, err := fetch(ctx, timeout, func(c context.Context) (*provider.Quote, error) {
		return s.dataSource.GetQuotes(c, symbol)
	})
	if err != nil {
		quote = nil
	}
	options, err := fetch(ctx, timeout, func(c context.Context) (*provider.OptionsSummary, error) {
		return s.dataSource.GetOptionsChain(c, symbol)
	})
	if err != nil {
		options = nil
	}
	flow, err := fetch(ctx, timeout, func(c context.Context) (*provider.FlowSummary, error) {
		return s.dataSource.GetFlow(c, symbol)
	})
	if err != nil {
		flow = nil
	}

	proc := s.registry.Get(symbol)
	snap := proc.Process(*bar, quote, options, flow)

	payload, err := snap.MarshalJSON()
	if err != nil {
		s.surface(symbol, err)
		payload = nil
	}

	if s.persist != nil && payload != nil {
		if err := s.persist.Store(ctx, persistence.SnapshotRecord{
			Symbol:    snap.Symbol,
			Timestamp: snap.Timestamp,
			Payload:   payload,
		}); err != nil {
			s.surface(symbol, err)
		}
	}
	if s.cache != nil && payload != nil {
		if err := s.cache.SetLatest(ctx, symbol, payload); err != nil {
			s.surface(symbol, err)
		}
	}

	// The snapshot is still broadcast even when persistence failed;
	// subscribers are not held hostage to the database.
	if s.sink != nil {
		if err := s.sink.Publish(snap); err != nil {
			s.surface(symbol, err)
		}
	}

	if s.metrics != nil {
		s.metrics.TicksProcessed.WithLabelValues(symbol).Inc()
		s.metrics.TickDuration.WithLabelValues(symbol).Observe(time.Since(start).Seconds())
	}
}

func (s *Scheduler) surface(symbol string, err error) {
	s.log.Error().Err(err).Str("symbol", symbol).Msg("scheduler: downstream failure")
	if s.metrics != nil {
		s.metrics.PersistFailures.WithLabelValues(symbol).Inc()
	}
	select {
	case s.errs <- err:
	default:
		// Channel full; the failure was already logged, so dropping it
		// here does not lose the operator-visible signal.
	}
}

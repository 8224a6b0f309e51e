// Package metrics exposes the prometheus collectors the REST facade
// serves at /metrics. Every measurement here is an event (a tick, a
// skip, a provider miss) rather than a periodically sampled gauge, so
// counters and histograms cover all of it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors groups every metric the scheduler and REST facade update.
type Collectors struct {
	TickDuration    *prometheus.HistogramVec
	TicksProcessed  *prometheus.CounterVec
	TicksSkipped    *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	BroadcastDrops  prometheus.Counter
}

// New registers and returns the collector set against reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketfield",
			Name:      "tick_duration_seconds",
			Help:      "Time spent running one symbol's tick pipeline.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"symbol"}),
		TicksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketfield",
			Name:      "ticks_processed_total",
			Help:      "Ticks that produced a Snapshot.",
		}, []string{"symbol"}),
		TicksSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketfield",
			Name:      "ticks_skipped_total",
			Help:      "Ticks skipped because the provider returned no bar.",
		}, []string{"symbol"}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketfield",
			Name:      "persist_failures_total",
			Help:      "Downstream failures (encode, persistence, cache write or broadcast) surfaced to the error channel.",
		}, []string{"symbol"}),
		BroadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketfield",
			Name:      "broadcast_drops_total",
			Help:      "Subscribers dropped for falling behind the publish stream.",
		}),
	}

	reg.MustRegister(c.TickDuration, c.TicksProcessed, c.TicksSkipped, c.PersistFailures, c.BroadcastDrops)
	return c
}

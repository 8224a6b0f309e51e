// Package symbolproc binds the collapse-field analytics stages into one
// per-symbol state machine and assembles the Snapshot output record.
package symbolproc

import (
	"math"

	"github.com/collapsefield/marketfield/internal/collapsefield"
	"github.com/collapsefield/marketfield/internal/config"
	"github.com/collapsefield/marketfield/internal/provider"
)

// Processor binds one instance of every analytics stage to a single
// symbol. It is created once per symbol, lives in a registry keyed by
// symbol, and is touched only by the driver goroutine processing that
// symbol's tick — no locking.
type Processor struct {
	symbol string

	sigma *collapsefield.SigmaEstimator
	tech  *collapsefield.TechnicalsAccumulator
	ichi  *collapsefield.IchimokuAccumulator

	liquidity *collapsefield.LiquidityField
	particle  *collapsefield.ParticleMapper
	dealer    *collapsefield.DealerFilter
	hazard    *collapsefield.HazardModel
	forward   *collapsefield.ForwardMap

	lastLogPrice float64
	hasLast      bool
}

// New constructs a Processor for one symbol from the immutable Config,
// which is shared by reference across every symbol.
func New(symbol string, cfg config.Config) *Processor {
	grid := collapsefield.NewZGrid(cfg.SigmaGrid.Min, cfg.SigmaGrid.Max, cfg.SigmaGrid.Step)

	return &Processor{
		symbol: symbol,
		sigma:  collapsefield.NewSigmaEstimator(cfg.AlphaDecay),
		tech:   collapsefield.NewTechnicalsAccumulator(),
		ichi:   collapsefield.NewIchimokuAccumulator(),
		liquidity: collapsefield.NewLiquidityField(grid, collapsefield.LiquidityWeights{
			VWAP:      cfg.Liquidity.Weights.VWAP,
			Bollinger: cfg.Liquidity.Weights.BB,
		}),
		particle: collapsefield.NewParticleMapper(cfg.Particle.Epsilon, cfg.Particle.ShockWeight),
		dealer:   collapsefield.NewDealerFilter(cfg.Dealer.StayProb, cfg.Dealer.FlipProb),
		hazard: collapsefield.NewHazardModel(cfg.Hazard.Intercepts, collapsefield.HazardCoeffs{
			A:       cfg.Hazard.Coeffs.A,
			PL:      cfg.Hazard.Coeffs.PL,
			Squeeze: cfg.Hazard.Coeffs.Squeeze,
			Pool:    cfg.Hazard.Coeffs.Pool,
		}),
		forward: collapsefield.NewForwardMap(grid, cfg.Forward.BetaL, cfg.Forward.MaxHorizon, cfg.Forward.MassThreshold),
	}
}

// Symbol returns the symbol this Processor is exclusively bound to.
func (p *Processor) Symbol() string { return p.symbol }

// Process runs the full per-tick pipeline for one BarTick and optional
// Quote/OptionsSummary/FlowSummary, returning the assembled Snapshot.
// Ordering is strictly sequential: no step reads state a later step
// mutates on this same call.
func (p *Processor) Process(bar provider.BarTick, quote *provider.Quote, options *provider.OptionsSummary, flow *provider.FlowSummary) Snapshot {
	logPrice := math.Log(bar.Close)
	logReturn := 0.0
	if p.hasLast {
		logReturn = logPrice - p.lastLogPrice
	}
	p.lastLogPrice = logPrice
	p.hasLast = true

	sigma := p.sigma.Update(logReturn)
	tech := p.tech.Update(bar.Close, bar.Volume)
	ichi := p.ichi.Update(bar.High, bar.Low, bar.Close)

	components := []collapsefield.Component{
		{Kind: collapsefield.VwapRef, Price: tech.VWAP},
		{Kind: collapsefield.BollingerMidRef, Price: tech.BB.MB},
		{Kind: collapsefield.BollingerUpperRef, Price: tech.BB.UB},
		{Kind: collapsefield.BollingerLowerRef, Price: tech.BB.LB},
	}
	pool := p.liquidity.Compute(logPrice, sigma, components)
	poolProximity := p.liquidity.PoolProximity(pool)

	spread, ask, bid := 0.0, bar.Close, bar.Close
	quoteSize := 0.0
	if quote != nil {
		spread, ask, bid = quote.Spread(), quote.Ask, quote.Bid
		quoteSize = (quote.BidSize + quote.AskSize) / 2
	}
	ofiZ, flowImpulseZ, shock := 0.0, 0.0, 0.0
	if flow != nil {
		ofiZ, flowImpulseZ, shock = flow.OFIZ, flow.FlowImpulseZ, flow.Shock
	}
	// The dealer z-score feature has no upstream producer; the particle
	// mapper always sees 0 for it.
	part := p.particle.Update(spread, ask, bid, 0, quoteSize, ofiZ, 0, flowImpulseZ, shock)

	lambda := p.hazard.Compute(ichi.State, part.Annihilation, 0, tech.BB.Squeeze, poolProximity, 0, 0)
	fwd := p.forward.Compute(lambda, bar.Close, sigma, pool)

	dealerP, dealerQ, dealerFeedback := 0.5, 0.5, 0.0
	if options != nil {
		zFeatures := []float64{ofiZ, flowImpulseZ}
		result := p.dealer.Update(zFeatures, options.AbsGEXNorm, options.Stale)
		dealerP, dealerQ, dealerFeedback = result.P, result.Q, result.Feedback
	}

	return Snapshot{
		Symbol:    p.symbol,
		Timestamp: bar.Timestamp,

		Sigma: sigma,
		VWAP:  tech.VWAP,
		RSI:   tech.RSINormalized,

		BBMiddle:  tech.BB.MB,
		BBUpper:   tech.BB.UB,
		BBLower:   tech.BB.LB,
		BBWidth:   tech.BB.Width,
		BBSqueeze: tech.BB.Squeeze,

		CloudState: ichi.State,
		CloudThick: ichi.Thick,

		Spread:       spread,
		Pressure:     part.Pressure,
		Inertia:      part.Inertia,
		Annihilation: part.Annihilation,

		DealerP:        dealerP,
		DealerQ:        dealerQ,
		DealerFeedback: dealerFeedback,

		Lambda: lambda,

		PoolField:  pool,
		ForwardMap: toForwardMapView(fwd),
	}
}

func toForwardMapView(fwd collapsefield.ForwardResult) ForwardMapView {
	entries := make([]ForwardEntryView, len(fwd.Entries))
	for i, e := range fwd.Entries {
		dist := make([]finite, len(e.Dist))
		for j, v := range e.Dist {
			dist[j] = finite(v)
		}
		entries[i] = ForwardEntryView{K: e.K, Mass: finite(e.Mass), Dist: dist}
	}
	return ForwardMapView{Entries: entries, CumMass: finite(fwd.CumMass)}
}

// Registry owns one Processor per subscribed symbol. It is mutated only
// from the scheduler's driver context (symbol add/remove), so the core
// needs no locking.
type Registry struct {
	cfg        config.Config
	processors map[string]*Processor
}

// NewRegistry builds an empty registry bound to the given shared config.
func NewRegistry(cfg config.Config) *Registry {
	return &Registry{cfg: cfg, processors: make(map[string]*Processor)}
}

// Get returns the Processor for symbol, creating it on first use.
func (r *Registry) Get(symbol string) *Processor {
	p, ok := r.processors[symbol]
	if !ok {
		p = New(symbol, r.cfg)
		r.processors[symbol] = p
	}
	return p
}

// Remove destroys a symbol's Processor and every accumulator it owns.
func (r *Registry) Remove(symbol string) {
	delete(r.processors, symbol)
}

// Symbols returns every symbol currently tracked, in no particular order.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.processors))
	for s := range r.processors {
		out = append(out, s)
	}
	return out
}

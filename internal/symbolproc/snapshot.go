package symbolproc

import (
	"encoding/json"
	"math"
	"time"
)

// finite wraps a float64 so that encoding/json emits null instead of the
// invalid "NaN"/"Infinity" tokens a bare float64 would otherwise error on.
// Nothing non-finite may reach a subscriber or the persistence layer.
type finite float64

// MarshalJSON implements json.Marshaler.
func (f finite) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// ForwardEntryView is the JSON-safe shape of one ForwardMap horizon.
type ForwardEntryView struct {
	K    int      `json:"k"`
	Mass finite   `json:"mass"`
	Dist []finite `json:"dist"`
}

// ForwardMapView is the JSON-safe shape of the full forward map.
type ForwardMapView struct {
	Entries []ForwardEntryView `json:"entries"`
	CumMass finite             `json:"cum_mass"`
}

// Snapshot is the per-tick record handed to the persistence and broadcast
// sinks. It is all-or-nothing: a tick that cannot be fully computed never
// produces a partial Snapshot.
type Snapshot struct {
	Symbol    string
	Timestamp time.Time

	Sigma float64
	VWAP  float64
	RSI   float64

	BBMiddle  float64
	BBUpper   float64
	BBLower   float64
	BBWidth   float64
	BBSqueeze bool

	CloudState int
	CloudThick float64

	Spread       float64
	Pressure     float64
	Inertia      float64
	Annihilation float64

	DealerP        float64
	DealerQ        float64
	DealerFeedback float64

	Lambda float64

	PoolField  []float64
	ForwardMap ForwardMapView
}

// snapshotWire is the JSON-on-the-wire shape; a separate type keeps the
// Go-side Snapshot free of json tags on every numeric field while still
// giving MarshalJSON full control over NaN/Inf sanitization.
type snapshotWire struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`

	Sigma finite `json:"sigma"`
	VWAP  finite `json:"vwap"`
	RSI   finite `json:"rsi"`

	BBMiddle  finite `json:"bb_middle"`
	BBUpper   finite `json:"bb_upper"`
	BBLower   finite `json:"bb_lower"`
	BBWidth   finite `json:"bb_width"`
	BBSqueeze bool   `json:"bb_squeeze"`

	CloudState int    `json:"cloud_state"`
	CloudThick finite `json:"cloud_thick"`

	Spread       finite `json:"spread"`
	Pressure     finite `json:"pressure"`
	Inertia      finite `json:"inertia"`
	Annihilation finite `json:"annihilation"`

	DealerP        finite `json:"p"`
	DealerQ        finite `json:"q"`
	DealerFeedback finite `json:"feedback"`

	Lambda finite `json:"lambda"`

	PoolField  []finite       `json:"pool_field"`
	ForwardMap ForwardMapView `json:"forward_map"`
}

// MarshalJSON routes every numeric field through the finite wrapper, so a
// NaN or ±Inf serializes as null rather than aborting the encode.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	pool := make([]finite, len(s.PoolField))
	for i, v := range s.PoolField {
		pool[i] = finite(v)
	}

	return json.Marshal(snapshotWire{
		Symbol:         s.Symbol,
		Timestamp:      s.Timestamp,
		Sigma:          finite(s.Sigma),
		VWAP:           finite(s.VWAP),
		RSI:            finite(s.RSI),
		BBMiddle:       finite(s.BBMiddle),
		BBUpper:        finite(s.BBUpper),
		BBLower:        finite(s.BBLower),
		BBWidth:        finite(s.BBWidth),
		BBSqueeze:      s.BBSqueeze,
		CloudState:     s.CloudState,
		CloudThick:     finite(s.CloudThick),
		Spread:         finite(s.Spread),
		Pressure:       finite(s.Pressure),
		Inertia:        finite(s.Inertia),
		Annihilation:   finite(s.Annihilation),
		DealerP:        finite(s.DealerP),
		DealerQ:        finite(s.DealerQ),
		DealerFeedback: finite(s.DealerFeedback),
		Lambda:         finite(s.Lambda),
		PoolField:      pool,
		ForwardMap:     s.ForwardMap,
	})
}

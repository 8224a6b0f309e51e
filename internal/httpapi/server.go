// Package httpapi is the thin read-only REST facade: it serves persisted
// or cached Snapshots and proxies WebSocket subscriptions to the
// broadcast hub. The analytics core has no knowledge of this package.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/collapsefield/marketfield/internal/persistence"
)

// LatestCacheReader is the hot-cache read-side collaborator
// (rediscache.Cache satisfies this).
type LatestCacheReader interface {
	GetLatest(ctx context.Context, symbol string) ([]byte, error)
}

// WSHandler serves a single WebSocket upgrade; broadcast.Hub.ServeWS
// satisfies this.
type WSHandler func(w http.ResponseWriter, r *http.Request)

// Server wires the REST facade's routes over a net/http.ServeMux — the
// route table here is small enough that gorilla/mux's extra machinery buys
// nothing over the stdlib muxer.
type Server struct {
	repo  persistence.SnapshotRepo
	cache LatestCacheReader
	ws    WSHandler
	log   zerolog.Logger
	mux   *http.ServeMux
}

// New builds a Server. cache and ws may be nil to disable the hot-cache
// fast path and the /ws endpoint respectively.
func New(repo persistence.SnapshotRepo, cache LatestCacheReader, ws WSHandler, log zerolog.Logger) *Server {
	s := &Server{repo: repo, cache: cache, ws: ws, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the root http.Handler for this facade.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/analytics/", s.handleLatest)
	s.mux.HandleFunc("/api/v1/snapshots/", s.handleHistory)
	s.mux.Handle("/metrics", promhttp.Handler())
	if s.ws != nil {
		s.mux.HandleFunc("/ws", s.ws)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Healthy   bool      `json:"healthy"`
		CheckedAt time.Time `json:"checked_at"`
	}{Healthy: true, CheckedAt: time.Now()}

	if s.repo != nil {
		if checker, ok := s.repo.(persistence.HealthChecker); ok {
			check := checker.Health(r.Context())
			health.Healthy = check.Healthy
		}
	}

	writeJSON(w, http.StatusOK, health)
}

// handleLatest serves GET /api/v1/analytics/{symbol}, preferring the hot
// cache and falling back to the repository on a miss.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	symbol := symbolFromPath(r.URL.Path, "/api/v1/analytics/")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	if s.cache != nil {
		payload, err := s.cache.GetLatest(r.Context(), symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("httpapi: cache read failed")
		} else if payload != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write(payload)
			return
		}
	}

	if s.repo == nil {
		http.Error(w, "no persistence configured", http.StatusServiceUnavailable)
		return
	}

	rec, err := s.repo.Latest(r.Context(), symbol)
	if err != nil {
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "no snapshot for symbol", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(rec.Payload)
}

// handleHistory serves GET /api/v1/snapshots/{symbol}?limit=N&from=RFC3339&to=RFC3339.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := symbolFromPath(r.URL.Path, "/api/v1/snapshots/")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	tr := persistence.TimeRange{To: time.Now()}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			tr.From = ts
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			tr.To = ts
		}
	}

	if s.repo == nil {
		http.Error(w, "no persistence configured", http.StatusServiceUnavailable)
		return
	}

	recs, err := s.repo.History(r.Context(), symbol, tr, limit)
	if err != nil {
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	payloads := make([]json.RawMessage, len(recs))
	for i, rec := range recs {
		payloads[i] = json.RawMessage(rec.Payload)
	}
	writeJSON(w, http.StatusOK, payloads)
}

func symbolFromPath(path, prefix string) string {
	if len(path) <= len(prefix) {
		return ""
	}
	return path[len(prefix):]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

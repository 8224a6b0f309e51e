// Package persistence defines the snapshot storage contract the core
// consumes, idempotent on (symbol, timestamp), plus the health-check
// surface the REST facade exposes.
package persistence

import (
	"context"
	"time"
)

// TimeRange bounds a history query.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// SnapshotRecord is the storage-layer view of a symbolproc.Snapshot. It
// is defined independently of that package (rather than imported) so that
// persistence depends only on the wire shape it stores, not on the
// analytics core.
type SnapshotRecord struct {
	Symbol    string
	Timestamp time.Time
	Payload   []byte // the Snapshot's JSON encoding, already NaN/Inf-sanitized
}

// SnapshotRepo stores Snapshots, idempotent on (symbol, timestamp). A
// persistence failure is surfaced to an error channel by the caller but
// never halts the scheduler.
type SnapshotRepo interface {
	Store(ctx context.Context, rec SnapshotRecord) error
	Latest(ctx context.Context, symbol string) (*SnapshotRecord, error)
	History(ctx context.Context, symbol string, tr TimeRange, limit int) ([]SnapshotRecord, error)
}

// HealthCheck reports persistence-layer liveness for the REST facade's
// /health endpoint.
type HealthCheck struct {
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthChecker is implemented by any SnapshotRepo backend capable of a
// cheap liveness probe.
type HealthChecker interface {
	Health(ctx context.Context) HealthCheck
}

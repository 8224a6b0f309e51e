// Package postgres implements persistence.SnapshotRepo over PostgreSQL
// via sqlx + lib/pq: a context timeout per call and ON CONFLICT DO UPDATE
// keyed on the record's natural identity.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/collapsefield/marketfield/internal/persistence"
)

// SnapshotRepo persists Snapshots keyed by (symbol, timestamp); Store is
// idempotent on that pair.
type SnapshotRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects to Postgres at dsn and returns a ready SnapshotRepo.
func Open(dsn string, timeout time.Duration) (*SnapshotRepo, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db, timeout), nil
}

// New wraps an already-connected *sqlx.DB.
func New(db *sqlx.DB, timeout time.Duration) *SnapshotRepo {
	return &SnapshotRepo{db: db, timeout: timeout}
}

// Schema is the DDL this repository expects. Callers run it (or an
// equivalent migration) before the scheduler starts.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	symbol    TEXT NOT NULL,
	ts        TIMESTAMPTZ NOT NULL,
	payload   JSONB NOT NULL,
	PRIMARY KEY (symbol, ts)
);
CREATE INDEX IF NOT EXISTS snapshots_symbol_ts_idx ON snapshots (symbol, ts DESC);
`

// Store upserts one Snapshot, idempotent on (symbol, timestamp).
func (r *SnapshotRepo) Store(ctx context.Context, rec persistence.SnapshotRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		INSERT INTO snapshots (symbol, ts, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, ts) DO UPDATE SET payload = EXCLUDED.payload
	`
	_, err := r.db.ExecContext(ctx, query, rec.Symbol, rec.Timestamp, rec.Payload)
	if err != nil {
		return fmt.Errorf("store snapshot %s@%s: %w", rec.Symbol, rec.Timestamp, err)
	}
	return nil
}

// Latest returns the most recent Snapshot for symbol, or nil if none exist.
func (r *SnapshotRepo) Latest(ctx context.Context, symbol string) (*persistence.SnapshotRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT symbol, ts, payload FROM snapshots
		WHERE symbol = $1 ORDER BY ts DESC LIMIT 1
	`
	var row snapshotRow
	if err := r.db.GetContext(ctx, &row, query, symbol); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest snapshot for %s: %w", symbol, err)
	}
	rec := row.toRecord()
	return &rec, nil
}

// History returns up to limit Snapshots for symbol within tr, newest first.
func (r *SnapshotRepo) History(ctx context.Context, symbol string, tr persistence.TimeRange, limit int) ([]persistence.SnapshotRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT symbol, ts, payload FROM snapshots
		WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts DESC LIMIT $4
	`
	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, query, symbol, tr.From, tr.To, limit); err != nil {
		return nil, fmt.Errorf("history for %s: %w", symbol, err)
	}

	out := make([]persistence.SnapshotRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord()
	}
	return out, nil
}

// Health pings the connection pool for the REST facade's /health endpoint.
func (r *SnapshotRepo) Health(ctx context.Context) persistence.HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	check := persistence.HealthCheck{CheckedAt: time.Now()}
	if err := r.db.PingContext(ctx); err != nil {
		check.Error = err.Error()
		return check
	}
	check.Healthy = true
	return check
}

type snapshotRow struct {
	Symbol  string    `db:"symbol"`
	Ts      time.Time `db:"ts"`
	Payload []byte    `db:"payload"`
}

func (row snapshotRow) toRecord() persistence.SnapshotRecord {
	return persistence.SnapshotRecord{Symbol: row.Symbol, Timestamp: row.Ts, Payload: row.Payload}
}

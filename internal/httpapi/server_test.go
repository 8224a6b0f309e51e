package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collapsefield/marketfield/internal/persistence"
)

type fakeRepo struct {
	latest  *persistence.SnapshotRecord
	history []persistence.SnapshotRecord
	err     error
	limit   int
}

func (r *fakeRepo) Store(ctx context.Context, rec persistence.SnapshotRecord) error { return nil }
func (r *fakeRepo) Latest(ctx context.Context, symbol string) (*persistence.SnapshotRecord, error) {
	return r.latest, r.err
}
func (r *fakeRepo) History(ctx context.Context, symbol string, tr persistence.TimeRange, limit int) ([]persistence.SnapshotRecord, error) {
	r.limit = limit
	return r.history, r.err
}

type healthRepo struct {
	fakeRepo
	check persistence.HealthCheck
}

func (r *healthRepo) Health(ctx context.Context) persistence.HealthCheck { return r.check }

type fakeCache struct {
	payload []byte
}

func (c *fakeCache) GetLatest(ctx context.Context, symbol string) ([]byte, error) {
	return c.payload, nil
}

func TestHandleLatestReturns404WhenAbsent(t *testing.T) {
	s := New(&fakeRepo{}, nil, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/BTC-USD", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleLatestPrefersCacheOverRepo(t *testing.T) {
	repo := &fakeRepo{latest: &persistence.SnapshotRecord{Symbol: "BTC-USD", Payload: []byte(`{"source":"repo"}`)}}
	cache := &fakeCache{payload: []byte(`{"source":"cache"}`)}
	s := New(repo, cache, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/BTC-USD", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"source":"cache"}`, rec.Body.String())
}

func TestHandleLatestFallsBackToRepoOnCacheMiss(t *testing.T) {
	repo := &fakeRepo{latest: &persistence.SnapshotRecord{Symbol: "BTC-USD", Payload: []byte(`{"source":"repo"}`)}}
	cache := &fakeCache{payload: nil}
	s := New(repo, cache, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/BTC-USD", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"source":"repo"}`, rec.Body.String())
}

func TestHandleHistoryRespectsLimitQueryParam(t *testing.T) {
	repo := &fakeRepo{history: []persistence.SnapshotRecord{
		{Symbol: "BTC-USD", Timestamp: time.Now(), Payload: []byte(`{"n":1}`)},
	}}
	s := New(repo, nil, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/BTC-USD?limit=5", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"n":1`)
	assert.Equal(t, 5, repo.limit)
}

func TestHandleHealthReportsRepoHealth(t *testing.T) {
	s := New(&fakeRepo{}, nil, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy":true`)

	s = New(&healthRepo{check: persistence.HealthCheck{Healthy: false}}, nil, nil, zerolog.Nop())
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy":false`)
}

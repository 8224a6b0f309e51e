package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetLatestWrites(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewWithClient(client, 30*time.Second)

	mock.ExpectSet("marketfield:snapshot:BTC-USD", []byte(`{"symbol":"BTC-USD"}`), 30*time.Second).SetVal("OK")

	err := c.SetLatest(context.Background(), "BTC-USD", []byte(`{"symbol":"BTC-USD"}`))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheGetLatestMissReturnsNilNil(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewWithClient(client, 30*time.Second)

	mock.ExpectGet("marketfield:snapshot:NOPE").RedisNil()

	payload, err := c.GetLatest(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestCacheGetLatestHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewWithClient(client, 30*time.Second)

	mock.ExpectGet("marketfield:snapshot:BTC-USD").SetVal(`{"symbol":"BTC-USD"}`)

	payload, err := c.GetLatest(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"symbol":"BTC-USD"}`), payload)
}

package arbitrage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

func TestFetchAllIsolatesFailures(t *testing.T) {
	ok := &fakeAdapter{name: "binance:spot", kind: domain.KindSpot, quotes: []domain.Quote{spot("binance", "BTC", 1, 2)}}
	bad := &fakeAdapter{name: "bybit:spot", kind: domain.KindSpot,
		err: domain.NewVenueError("bybit", domain.ReasonProxyBlocked, errors.New("403 from proxy"))}
	plain := &fakeAdapter{name: "okx:spot", kind: domain.KindSpot, err: errors.New("connection reset")}

	results := NewFetcher([]Adapter{ok, bad, plain}, 2, time.Second, discardLogger()).FetchAll(context.Background())
	require.Len(t, results, 3)

	assert.True(t, results[0].OK())
	assert.Len(t, results[0].Quotes, 1)

	assert.ErrorIs(t, results[1].Err, domain.ErrVenueUnavailable)
	assert.Equal(t, domain.ReasonProxyBlocked, FailureReason(results[1].Err))
	assert.Empty(t, results[1].Quotes)

	assert.ErrorIs(t, results[2].Err, domain.ErrVenueUnavailable)
	assert.Equal(t, domain.ReasonTransport, FailureReason(results[2].Err))
}

func TestFetchAllTimeoutDoesNotBlockOthers(t *testing.T) {
	slow := &fakeAdapter{name: "slow", kind: domain.KindSpot, delay: 5 * time.Second, ignoreCtx: true}
	fast := &fakeAdapter{name: "fast", kind: domain.KindSpot, quotes: []domain.Quote{spot("fast", "ETH", 1, 2)}}

	start := time.Now()
	results := NewFetcher([]Adapter{slow, fast}, 2, 50*time.Millisecond, discardLogger()).FetchAll(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, domain.ReasonTimeout, FailureReason(results[0].Err))
	assert.True(t, results[1].OK())
}

func TestFetchAllRecoversPanics(t *testing.T) {
	boom := &fakeAdapter{name: "boom", kind: domain.KindDex, panicMsg: "nil map"}
	results := NewFetcher([]Adapter{boom}, 1, time.Second, discardLogger()).FetchAll(context.Background())
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, domain.ErrVenueUnavailable)
	assert.Equal(t, domain.ReasonPanic, FailureReason(results[0].Err))
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	adapters := make([]Adapter, 6)
	for i := range adapters {
		adapters[i] = &fakeAdapter{
			name: string(rune('a' + i)), kind: domain.KindSpot, delay: 20 * time.Millisecond,
			inFlight: &inFlight, maxInFlight: &maxInFlight,
		}
	}
	f := NewFetcher(adapters, 2, time.Second, discardLogger())
	assert.Equal(t, 2, f.Workers())

	results := f.FetchAll(context.Background())
	assert.Len(t, results, 6)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(2))
	for _, a := range adapters {
		assert.Equal(t, int32(1), a.(*fakeAdapter).calls.Load(), "no retries")
	}
}

func TestFetcherWorkers(t *testing.T) {
	adapters := []Adapter{&fakeAdapter{name: "a"}, &fakeAdapter{name: "b"}}
	assert.Equal(t, 2, NewFetcher(adapters, 8, 0, discardLogger()).Workers())
	assert.Equal(t, 2, NewFetcher(adapters, 0, 0, discardLogger()).Workers())
	assert.Equal(t, 1, NewFetcher(adapters, 1, 0, discardLogger()).Workers())
	assert.Empty(t, NewFetcher(nil, 4, 0, discardLogger()).FetchAll(context.Background()))
}

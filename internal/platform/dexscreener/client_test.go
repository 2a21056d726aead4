package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/platform/rest"
)

const ethSearch = `{"schemaVersion":"1.0.0","pairs":[
  {"chainId":"ethereum","dexId":"uniswap","pairAddress":"0xpool1",
   "baseToken":{"address":"0xc02a","symbol":"WETH"},"quoteToken":{"symbol":"USDC"},
   "priceUsd":"3001.25","liquidity":{"usd":2500000.5}},
  {"chainId":"base","dexId":"aerodrome","pairAddress":"0xpool2",
   "baseToken":{"address":"0x4200","symbol":"WETH"},"quoteToken":{"symbol":"USDC"},
   "priceUsd":"3002.00","liquidity":{"usd":900}},
  {"chainId":"solana","dexId":"raydium","pairAddress":"pool3",
   "baseToken":{"address":"7vf","symbol":"ETH"},"quoteToken":{"symbol":"SOL"},
   "priceUsd":"","liquidity":{"usd":50000}},
  {"chainId":"bsc","dexId":"pancakeswap","pairAddress":"0xpool4",
   "baseToken":{"address":"0x2170","symbol":"ETH"},"quoteToken":{"symbol":"USDT"},
   "priceUsd":"2999.9"}
]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := rest.New(rest.Config{Venue: AdapterName, BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return NewClient(c)
}

func TestFetchPools(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "ETH", r.URL.Query().Get("q"))
		w.Write([]byte(ethSearch))
	})

	quotes, err := c.FetchPools(context.Background(), "ETH", 10_000)
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, domain.KindDex, q.Kind)
	assert.Equal(t, "uniswap", q.VenueID)
	assert.Equal(t, "ethereum", q.Network)
	assert.Equal(t, "0xpool1", q.PoolID)
	assert.Equal(t, "WETH", q.RawSymbol)
	assert.Equal(t, 3001.25, q.Price())
	assert.True(t, q.HasLiquidity)
	assert.Equal(t, 2500000.5, q.LiquidityUSD)
}

func TestAdapterPartialFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "SOL" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(ethSearch))
	})
	a := NewAdapter(c, []string{"ETH", "SOL", "ETH"}, 0)
	quotes, err := a.Fetch(context.Background())
	require.NoError(t, err)
	// Two pools carry both price and liquidity; the repeated search adds nothing.
	assert.Len(t, quotes, 2)
}

func TestAdapterTotalFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := NewAdapter(c, []string{"ETH", "SOL"}, 0).Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrVenueUnavailable)
}

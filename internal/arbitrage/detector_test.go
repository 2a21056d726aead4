package arbitrage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

type recordingObserver struct {
	fetches []FetchResult
	scans   []ScanResult
}

func (r *recordingObserver) ObserveFetch(res FetchResult) { r.fetches = append(r.fetches, res) }
func (r *recordingObserver) ObserveScan(res ScanResult)   { r.scans = append(r.scans, res) }

func newTestDetector(obs Observer, adapters ...Adapter) *Detector {
	return NewDetector(DetectorConfig{
		Adapters:     adapters,
		MaxWorkers:   4,
		VenueTimeout: time.Second,
		Filter:       Filter{MinSpreadPct: 0.1, MaxSpreadPct: 50, MinLiquidityUSD: 10_000},
		Observer:     obs,
		Logger:       discardLogger(),
	})
}

func TestScanEndToEnd(t *testing.T) {
	obs := &recordingObserver{}
	d := newTestDetector(obs,
		&fakeAdapter{name: "binance:spot", kind: domain.KindSpot, quotes: []domain.Quote{
			spot("binance", "ETH", 3000, 3001),
			spot("binance", "BTC", 60000, 60010),
		}},
		&fakeAdapter{name: "okx:spot", kind: domain.KindSpot, quotes: []domain.Quote{
			spot("okx", "ETH", 3060, 3061),
		}},
		&fakeAdapter{name: "dexscreener", kind: domain.KindDex, quotes: []domain.Quote{
			dex("uniswap", "ethereum", "0xa", "WETH", 2950, 1_000_000),
			dex("tinyswap", "base", "0xb", "ETH", 2000, 500),
		}},
		&fakeAdapter{name: "bybit:spot", kind: domain.KindSpot, err: errors.New("dial tcp: refused")},
	)

	res := d.Scan(context.Background())
	assert.Equal(t, 1, res.FailedVenues())
	assert.Equal(t, 5, res.Quotes)

	require.Len(t, res.Report.Spot, 1)
	top := res.Report.Spot[0]
	assert.Equal(t, "binance", top.BuyVenue)
	assert.Equal(t, "okx", top.SellVenue)

	// Highest-liquidity pool wins; it pairs with both spot venues.
	require.Len(t, res.Report.Dex, 2)
	assert.Equal(t, "uniswap", res.Report.Dex[0].BuyVenue)
	assert.Equal(t, "okx", res.Report.Dex[0].SellVenue)
	assert.Greater(t, res.Report.Dex[0].SpreadPct, res.Report.Dex[1].SpreadPct)

	assert.Len(t, obs.fetches, 4)
	assert.Len(t, obs.scans, 1)
}

func TestScanTotalFailureYieldsEmptyReport(t *testing.T) {
	d := newTestDetector(nil,
		&fakeAdapter{name: "a", kind: domain.KindSpot, err: errors.New("down")},
		&fakeAdapter{name: "b", kind: domain.KindFutures, err: errors.New("down")},
	)
	res := d.Scan(context.Background())
	assert.Equal(t, 2, res.FailedVenues())
	assert.Equal(t, 0, res.Report.Len())

	raw, err := json.Marshal(res.Report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"spot":[],"futures":[],"dex":[]}`, string(raw))
}

func TestScanDeterministic(t *testing.T) {
	build := func() *Detector {
		return newTestDetector(nil,
			&fakeAdapter{name: "binance:spot", kind: domain.KindSpot, quotes: []domain.Quote{
				spot("binance", "ETH", 3000, 3001), spot("binance", "SOL", 140, 140.1),
			}},
			&fakeAdapter{name: "bybit:spot", kind: domain.KindSpot, quotes: []domain.Quote{
				spot("bybit", "ETH", 3030, 3031), spot("bybit", "SOL", 142, 142.1),
			}},
			&fakeAdapter{name: "okx:futures", kind: domain.KindFutures, quotes: []domain.Quote{
				futures("okx", "ETH", 3100, 3101),
			}},
			&fakeAdapter{name: "binance:futures", kind: domain.KindFutures, quotes: []domain.Quote{
				futures("binance", "ETH", 3000, 3001),
			}},
		)
	}
	a, err := json.Marshal(build().Scan(context.Background()).Report)
	require.NoError(t, err)
	b, err := json.Marshal(build().Scan(context.Background()).Report)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestEvaluateSpreadBoundsEndToEnd(t *testing.T) {
	d := newTestDetector(nil)
	res := d.Evaluate([]domain.Quote{
		spot("A", "BTC", 99, 100),
		spot("B", "BTC", 100.1, 100.2),
	})
	// A->B is exactly 0.1% and must be excluded.
	assert.Empty(t, res.Report.Spot)
	assert.Equal(t, 2, res.Opportunities)
}

func TestEvaluateDexSpotMatch(t *testing.T) {
	d := NewDetector(DetectorConfig{
		Filter: Filter{MinSpreadPct: 0.5, MaxSpreadPct: 50, MinLiquidityUSD: 10_000},
		Logger: discardLogger(),
	})
	res := d.Evaluate([]domain.Quote{
		dex("pancake", "bsc", "0xpool", "ABC", 1.00, 10_000),
		spot("binance", "ABC", 1.05, 1.06),
	})

	assert.Empty(t, res.Report.Spot)
	assert.Empty(t, res.Report.Futures)
	require.Len(t, res.Report.Dex, 1)
	o := res.Report.Dex[0]
	assert.Equal(t, "pancake", o.BuyVenue)
	assert.Equal(t, "binance", o.SellVenue)
	assert.Equal(t, 5.00, domain.RoundSpread(o.SpreadPct))

	raw, err := json.Marshal(res.Report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"spot":[],"futures":[],"dex":[{
		"symbol":"ABC","spread":5,
		"buyAt":"pancake (bsc)","buyPrice":1,
		"sellAt":"binance","sellPrice":1.05,
		"networks":"bsc","liquidity":"$10,000"}]}`, string(raw))
	assert.Contains(t, string(raw), `"spread":5,`)
}

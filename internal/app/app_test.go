package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadscan/internal/config"
	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/platform/binance"
	"github.com/alanyoungcy/spreadscan/internal/platform/bybit"
	"github.com/alanyoungcy/spreadscan/internal/platform/okx"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildRegistry_Defaults(t *testing.T) {
	cfg := config.Defaults()

	reg, cleanup, err := BuildRegistry(context.Background(), &cfg, nil)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, []string{
		"binance:futures", "binance:spot",
		"bybit:futures", "bybit:spot",
		"dexscreener",
		"okx:futures", "okx:spot",
	}, reg.List())
}

func TestBuildRegistry_NothingEnabled(t *testing.T) {
	cfg := config.Defaults()
	for id, v := range cfg.Venues {
		v.Enabled = false
		cfg.Venues[id] = v
	}
	cfg.DexScreener.Enabled = false

	_, cleanup, err := BuildRegistry(context.Background(), &cfg, nil)
	defer cleanup()
	assert.ErrorIs(t, err, domain.ErrNoAdaptersEnabled)
}

func TestBuildRegistry_BadProxy(t *testing.T) {
	cfg := config.Defaults()
	v := cfg.Venues[config.VenueBybit]
	v.Proxy = "://nope"
	cfg.Venues[config.VenueBybit] = v

	_, cleanup, err := BuildRegistry(context.Background(), &cfg, nil)
	defer cleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bybit")
}

func TestVenueBaseURL(t *testing.T) {
	var none config.VenueConfig
	assert.Equal(t, binance.DefaultSpotURL, venueBaseURL(config.VenueBinance, domain.KindSpot, none))
	assert.Equal(t, binance.DefaultFuturesURL, venueBaseURL(config.VenueBinance, domain.KindFutures, none))
	assert.Equal(t, bybit.DefaultURL, venueBaseURL(config.VenueBybit, domain.KindFutures, none))
	assert.Equal(t, okx.DefaultURL, venueBaseURL(config.VenueOKX, domain.KindSpot, none))

	custom := config.VenueConfig{BaseURL: "http://spot.local", FuturesBaseURL: "http://fut.local"}
	assert.Equal(t, "http://spot.local", venueBaseURL(config.VenueBinance, domain.KindSpot, custom))
	assert.Equal(t, "http://fut.local", venueBaseURL(config.VenueBinance, domain.KindFutures, custom))

	spotOnly := config.VenueConfig{BaseURL: "http://mirror.local"}
	assert.Equal(t, "http://mirror.local", venueBaseURL(config.VenueOKX, domain.KindFutures, spotOnly))
}

func TestUniswapPools(t *testing.T) {
	pools := uniswapPools(config.UniswapConfig{
		Network: "ethereum",
		Pools: []config.UniswapPoolConfig{{
			Address:       "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc",
			BaseSymbol:    "weth",
			BaseDecimals:  18,
			QuoteDecimals: 6,
		}},
	})
	require.Len(t, pools, 1)
	assert.Equal(t, "WETH", pools[0].BaseSymbol)
	assert.Equal(t, "ethereum", pools[0].Network)
	assert.Equal(t, "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc", pools[0].Address.Hex())
}

func TestWire_DefaultsOnlyFileSink(t *testing.T) {
	cfg := config.Defaults()
	cfg.Output.Dir = t.TempDir()

	deps, cleanup, err := Wire(context.Background(), &cfg, quietLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, []string{"file"}, namesOf(deps.Sinks))
	assert.Empty(t, deps.Checks)
	assert.Nil(t, deps.SignalBus)
	assert.Nil(t, deps.LockManager)
	assert.NotNil(t, deps.Metrics)
}

func TestWire_NotifySinkWhenSenderConfigured(t *testing.T) {
	cfg := config.Defaults()
	cfg.Output.Enabled = false
	cfg.Notify.DiscordWebhookURL = "http://127.0.0.1:1/webhook"

	deps, cleanup, err := Wire(context.Background(), &cfg, quietLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, []string{"notify"}, namesOf(deps.Sinks))
}

func TestRun_OnceWritesReportFile(t *testing.T) {
	binanceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/bookTicker", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"symbol":"BTCUSDT","bidPrice":"100","askPrice":"100.5"},
			{"symbol":"BTCBUSD","bidPrice":"90","askPrice":"91"}
		]`)
	}))
	defer binanceSrv.Close()

	bybitSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/tickers", r.URL.Path)
		assert.Equal(t, "spot", r.URL.Query().Get("category"))
		_, _ = io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"category":"spot","list":[
			{"symbol":"BTCUSDT","bid1Price":"102","ask1Price":"102.2"}
		]}}`)
	}))
	defer bybitSrv.Close()

	cfg := config.Defaults()
	cfg.Mode = "once"
	cfg.DexScreener.Enabled = false
	cfg.Output.Dir = t.TempDir()

	b := cfg.Venues[config.VenueBinance]
	b.Kinds = []string{"spot"}
	b.BaseURL = binanceSrv.URL
	cfg.Venues[config.VenueBinance] = b

	y := cfg.Venues[config.VenueBybit]
	y.Kinds = []string{"spot"}
	y.BaseURL = bybitSrv.URL
	cfg.Venues[config.VenueBybit] = y

	o := cfg.Venues[config.VenueOKX]
	o.Enabled = false
	cfg.Venues[config.VenueOKX] = o

	a := New(&cfg, quietLogger())
	require.NoError(t, a.Run(context.Background()))
	a.Close()

	raw, err := os.ReadFile(filepath.Join(cfg.Output.Dir, cfg.Output.Path))
	require.NoError(t, err)

	var report map[string][]domain.ReportEntry
	require.NoError(t, json.Unmarshal(raw, &report))

	require.Len(t, report["spot"], 1)
	got := report["spot"][0]
	assert.Equal(t, "BTC", got.Symbol)
	assert.Equal(t, 1.49, got.Spread)
	assert.Equal(t, "binance", got.BuyAt)
	assert.Equal(t, 100.5, got.BuyPrice)
	assert.Equal(t, "bybit", got.SellAt)
	assert.Equal(t, 102.0, got.SellPrice)
	assert.Empty(t, report["futures"])
	assert.Empty(t, report["dex"])
	assert.Equal(t, []string{"binance:spot", "bybit:spot"}, a.adapterNames)
}

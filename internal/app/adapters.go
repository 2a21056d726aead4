package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/spreadscan/internal/arbitrage"
	"github.com/alanyoungcy/spreadscan/internal/config"
	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/platform/binance"
	"github.com/alanyoungcy/spreadscan/internal/platform/bybit"
	"github.com/alanyoungcy/spreadscan/internal/platform/dexscreener"
	"github.com/alanyoungcy/spreadscan/internal/platform/okx"
	"github.com/alanyoungcy/spreadscan/internal/platform/rest"
	"github.com/alanyoungcy/spreadscan/internal/platform/uniswap"
)

// BuildRegistry creates one adapter per enabled venue and kind. Every venue
// gets its own REST client carrying the proxy configured for that venue id.
// The returned cleanup releases the RPC connection when Uniswap is enabled.
func BuildRegistry(ctx context.Context, cfg *config.Config, limiter domain.RateLimiter) (*arbitrage.Registry, func(), error) {
	reg := arbitrage.NewRegistry()
	cleanup := func() {}
	pairs := rest.NewPairFilter(cfg.Scan.QuoteAsset, cfg.Scan.Symbols)

	for _, id := range cfg.EnabledVenues() {
		v := cfg.Venues[id]
		for _, k := range v.Kinds {
			kind := domain.VenueKind(k)
			client, err := rest.New(rest.Config{
				Venue:      id,
				BaseURL:    venueBaseURL(id, kind, v),
				ProxyURL:   v.Proxy,
				Timeout:    cfg.Scan.VenueTimeout.Duration,
				RateLimit:  v.RateLimit,
				RateWindow: v.RateWindow.Duration,
			}, limiter)
			if err != nil {
				return nil, cleanup, err
			}
			switch id {
			case config.VenueBinance:
				reg.Register(binance.NewAdapter(kind, client, pairs, v.Networks))
			case config.VenueBybit:
				reg.Register(bybit.NewAdapter(kind, client, pairs, v.Networks))
			case config.VenueOKX:
				reg.Register(okx.NewAdapter(kind, client, pairs, v.Networks))
			default:
				return nil, cleanup, fmt.Errorf("app: no adapter for venue %q", id)
			}
		}
	}

	if cfg.DexScreener.Enabled {
		baseURL := cfg.DexScreener.BaseURL
		if baseURL == "" {
			baseURL = dexscreener.DefaultURL
		}
		client, err := rest.New(rest.Config{
			Venue:      dexscreener.AdapterName,
			BaseURL:    baseURL,
			ProxyURL:   cfg.DexScreener.Proxy,
			Timeout:    cfg.Scan.VenueTimeout.Duration,
			RateLimit:  cfg.DexScreener.RateLimit,
			RateWindow: cfg.DexScreener.RateWindow.Duration,
		}, limiter)
		if err != nil {
			return nil, cleanup, err
		}
		reg.Register(dexscreener.NewAdapter(
			dexscreener.NewClient(client), cfg.DexQueries(), cfg.DexScreener.MinLiquidityUSD))
	}

	if cfg.Uniswap.Enabled {
		eth, err := ethclient.DialContext(ctx, cfg.Uniswap.RPCURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("app: dial uniswap rpc: %w", err)
		}
		cleanup = eth.Close
		reg.Register(uniswap.NewAdapter(eth, uniswapPools(cfg.Uniswap)))
	}

	if len(reg.List()) == 0 {
		return nil, cleanup, domain.ErrNoAdaptersEnabled
	}
	return reg, cleanup, nil
}

func venueBaseURL(id string, kind domain.VenueKind, v config.VenueConfig) string {
	if kind == domain.KindFutures && v.FuturesBaseURL != "" {
		return v.FuturesBaseURL
	}
	if v.BaseURL != "" {
		return v.BaseURL
	}
	switch id {
	case config.VenueBinance:
		if kind == domain.KindFutures {
			return binance.DefaultFuturesURL
		}
		return binance.DefaultSpotURL
	case config.VenueBybit:
		return bybit.DefaultURL
	case config.VenueOKX:
		return okx.DefaultURL
	}
	return ""
}

func uniswapPools(cfg config.UniswapConfig) []uniswap.Pool {
	pools := make([]uniswap.Pool, 0, len(cfg.Pools))
	for _, p := range cfg.Pools {
		pools = append(pools, uniswap.Pool{
			Address:       common.HexToAddress(p.Address),
			Network:       cfg.Network,
			BaseSymbol:    strings.ToUpper(p.BaseSymbol),
			BaseDecimals:  p.BaseDecimals,
			QuoteDecimals: p.QuoteDecimals,
			BaseIsToken0:  p.BaseIsToken0,
		})
	}
	return pools
}

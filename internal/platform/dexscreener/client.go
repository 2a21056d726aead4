// Package dexscreener discovers DEX pools and their USD prices through the
// DexScreener public API.
package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/platform/rest"
)

const (
	AdapterName = "dexscreener"
	DefaultURL  = "https://api.dexscreener.com"
)

// Pair is the subset of a DexScreener pair used for quoting.
type Pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Symbol string `json:"symbol"`
	} `json:"quoteToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

type searchResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Client queries DexScreener.
type Client struct {
	rest *rest.Client
	now  func() time.Time
}

// NewClient wraps a REST client pointed at DefaultURL (or a mirror).
func NewClient(c *rest.Client) *Client {
	return &Client{rest: c, now: time.Now}
}

// FetchPools returns one quote per pool matching query whose liquidity is at
// least minLiquidityUSD. Pools without a USD price are skipped.
func (c *Client) FetchPools(ctx context.Context, query string, minLiquidityUSD float64) ([]domain.Quote, error) {
	var resp searchResponse
	if err := c.rest.GetJSON(ctx, "/latest/dex/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener: search %q: %w", query, err)
	}

	ts := c.now()
	quotes := make([]domain.Quote, 0, len(resp.Pairs))
	for _, p := range resp.Pairs {
		if p.Liquidity == nil || p.Liquidity.USD < minLiquidityUSD {
			continue
		}
		price := rest.ParsePrice(p.PriceUSD)
		if price <= 0 {
			continue
		}
		quotes = append(quotes, domain.NewDexQuote(
			p.DexID, p.ChainID, p.PairAddress, p.BaseToken.Symbol, price, p.Liquidity.USD, ts,
		))
	}
	return quotes, nil
}

// Adapter runs one pool search per query and merges the results.
type Adapter struct {
	client       *Client
	queries      []string
	minLiquidity float64
}

// NewAdapter creates the DexScreener adapter.
func NewAdapter(client *Client, queries []string, minLiquidityUSD float64) *Adapter {
	return &Adapter{client: client, queries: queries, minLiquidity: minLiquidityUSD}
}

func (a *Adapter) Name() string           { return AdapterName }
func (a *Adapter) Kind() domain.VenueKind { return domain.KindDex }

// Fetch searches every query. Failed queries are skipped; the venue is
// unavailable only when all of them fail.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Quote, error) {
	if len(a.queries) == 0 {
		return nil, nil
	}
	var (
		quotes []domain.Quote
		errs   []error
		seen   = make(map[string]bool)
	)
	for _, q := range a.queries {
		pools, err := a.client.FetchPools(ctx, strings.TrimSpace(q), a.minLiquidity)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, p := range pools {
			// Searches overlap; a pool found twice is one pool.
			key := p.Network + "/" + p.PoolID
			if seen[key] {
				continue
			}
			seen[key] = true
			quotes = append(quotes, p)
		}
	}
	if len(errs) == len(a.queries) {
		return nil, errors.Join(errs...)
	}
	return quotes, nil
}

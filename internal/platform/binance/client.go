// Package binance reads best bid/ask for Binance spot and USDⓈ-M futures.
package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/platform/rest"
)

const (
	VenueID           = "binance"
	DefaultSpotURL    = "https://api.binance.com"
	DefaultFuturesURL = "https://fapi.binance.com"
)

type bookTicker struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

// Adapter fetches every book ticker of one market kind in a single request.
type Adapter struct {
	kind     domain.VenueKind
	client   *rest.Client
	pairs    rest.PairFilter
	networks string
	now      func() time.Time
}

// NewAdapter creates a Binance adapter. client must point at the spot or
// futures API root matching kind.
func NewAdapter(kind domain.VenueKind, client *rest.Client, pairs rest.PairFilter, networks string) *Adapter {
	return &Adapter{kind: kind, client: client, pairs: pairs, networks: networks, now: time.Now}
}

func (a *Adapter) Name() string           { return VenueID + ":" + string(a.kind) }
func (a *Adapter) Kind() domain.VenueKind { return a.kind }

// Fetch returns one quote per matching pair.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Quote, error) {
	path := "/api/v3/ticker/bookTicker"
	if a.kind == domain.KindFutures {
		path = "/fapi/v1/ticker/bookTicker"
	}

	var tickers []bookTicker
	if err := a.client.GetJSON(ctx, path, nil, &tickers); err != nil {
		return nil, fmt.Errorf("binance: %s book tickers: %w", a.kind, err)
	}

	ts := a.now()
	quotes := make([]domain.Quote, 0, len(tickers))
	for _, t := range tickers {
		base, ok := a.pairs.Base(t.Symbol, "", "")
		if !ok {
			continue
		}
		bid, ask := rest.ParsePrice(t.BidPrice), rest.ParsePrice(t.AskPrice)
		var q domain.Quote
		if a.kind == domain.KindFutures {
			q = domain.NewFuturesQuote(VenueID, base, bid, ask, ts)
		} else {
			q = domain.NewSpotQuote(VenueID, base, bid, ask, ts)
		}
		quotes = append(quotes, q.WithNetwork(a.networks))
	}
	return quotes, nil
}

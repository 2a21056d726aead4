// Package bybit reads best bid/ask from the Bybit v5 market tickers endpoint.
package bybit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/platform/rest"
)

const (
	VenueID    = "bybit"
	DefaultURL = "https://api.bybit.com"

	retCodeRateLimited = 10006
)

type tickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			Bid1Price string `json:"bid1Price"`
			Ask1Price string `json:"ask1Price"`
		} `json:"list"`
	} `json:"result"`
}

// Adapter fetches spot or linear-perpetual tickers.
type Adapter struct {
	kind     domain.VenueKind
	client   *rest.Client
	pairs    rest.PairFilter
	networks string
	now      func() time.Time
}

func NewAdapter(kind domain.VenueKind, client *rest.Client, pairs rest.PairFilter, networks string) *Adapter {
	return &Adapter{kind: kind, client: client, pairs: pairs, networks: networks, now: time.Now}
}

func (a *Adapter) Name() string           { return VenueID + ":" + string(a.kind) }
func (a *Adapter) Kind() domain.VenueKind { return a.kind }

func (a *Adapter) category() string {
	if a.kind == domain.KindFutures {
		return "linear"
	}
	return "spot"
}

// Fetch returns one quote per matching pair.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Quote, error) {
	var resp tickersResponse
	params := url.Values{"category": {a.category()}}
	if err := a.client.GetJSON(ctx, "/v5/market/tickers", params, &resp); err != nil {
		return nil, fmt.Errorf("bybit: %s tickers: %w", a.category(), err)
	}
	if resp.RetCode != 0 {
		reason := domain.ReasonBadResponse
		if resp.RetCode == retCodeRateLimited {
			reason = domain.ReasonRateLimited
		}
		return nil, domain.NewVenueError(VenueID, reason, fmt.Errorf("retCode %d: %s", resp.RetCode, resp.RetMsg))
	}

	ts := a.now()
	quotes := make([]domain.Quote, 0, len(resp.Result.List))
	for _, t := range resp.Result.List {
		base, ok := a.pairs.Base(t.Symbol, "", "")
		if !ok {
			continue
		}
		bid, ask := rest.ParsePrice(t.Bid1Price), rest.ParsePrice(t.Ask1Price)
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

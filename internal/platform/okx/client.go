// Package okx reads best bid/ask from the OKX v5 market tickers endpoint.
package okx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/platform/rest"
)

const (
	VenueID    = "okx"
	DefaultURL = "https://www.okx.com"

	codeRateLimited = "50011"
	swapSuffix      = "-SWAP"
)

type tickersResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID string `json:"instId"`
		BidPx  string `json:"bidPx"`
		AskPx  string `json:"askPx"`
	} `json:"data"`
}

// Adapter fetches SPOT or SWAP tickers.
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

// Fetch returns one quote per matching instrument.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Quote, error) {
	instType, suffix := "SPOT", ""
	if a.kind == domain.KindFutures {
		instType, suffix = "SWAP", swapSuffix
	}

	var resp tickersResponse
	if err := a.client.GetJSON(ctx, "/api/v5/market/tickers", url.Values{"instType": {instType}}, &resp); err != nil {
		return nil, fmt.Errorf("okx: %s tickers: %w", instType, err)
	}
	if resp.Code != "0" {
		reason := domain.ReasonBadResponse
		if resp.Code == codeRateLimited {
			reason = domain.ReasonRateLimited
		}
		return nil, domain.NewVenueError(VenueID, reason, fmt.Errorf("code %s: %s", resp.Code, resp.Msg))
	}

	ts := a.now()
	quotes := make([]domain.Quote, 0, len(resp.Data))
	for _, t := range resp.Data {
		base, ok := a.pairs.Base(t.InstID, "-", suffix)
		if !ok {
			continue
		}
		bid, ask := rest.ParsePrice(t.BidPx), rest.ParsePrice(t.AskPx)
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

package arbitrage

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func spot(venue, symbol string, bid, ask float64) domain.Quote {
	return domain.NewSpotQuote(venue, symbol, bid, ask, testTime)
}

func futures(venue, symbol string, bid, ask float64) domain.Quote {
	return domain.NewFuturesQuote(venue, symbol, bid, ask, testTime)
}

func dex(venue, network, pool, symbol string, price, liq float64) domain.Quote {
	return domain.NewDexQuote(venue, network, pool, symbol, price, liq, testTime)
}

// fakeAdapter returns canned quotes or an error, optionally after a delay.
type fakeAdapter struct {
	name        string
	kind        domain.VenueKind
	quotes      []domain.Quote
	err         error
	delay       time.Duration
	ignoreCtx   bool
	panicMsg    string
	calls       atomic.Int32
	inFlight    *atomic.Int32
	maxInFlight *atomic.Int32
}

func (f *fakeAdapter) Name() string           { return f.name }
func (f *fakeAdapter) Kind() domain.VenueKind { return f.kind }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]domain.Quote, error) {
	f.calls.Add(1)
	if f.inFlight != nil {
		n := f.inFlight.Add(1)
		defer f.inFlight.Add(-1)
		for {
			m := f.maxInFlight.Load()
			if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

// Package arbitrage detects cross-venue price spreads. Quotes fetched from
// venue adapters are normalized, deduplicated per asset, paired into
// directional spreads, then filtered and ranked into a Report.
package arbitrage

import (
	"context"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// Adapter fetches current quotes from one venue and market kind.
type Adapter interface {
	Name() string
	Kind() domain.VenueKind
	// Fetch returns the venue's quotes. A failure of the whole venue is
	// reported as a *domain.VenueError.
	Fetch(ctx context.Context) ([]domain.Quote, error)
}

// FetchResult is the outcome of one adapter call. Exactly one of Quotes or
// Err is meaningful: a failed venue contributes no quotes.
type FetchResult struct {
	Adapter string
	Kind    domain.VenueKind
	Quotes  []domain.Quote
	Err     error
	Elapsed time.Duration
}

// OK reports whether the adapter call succeeded.
func (r FetchResult) OK() bool { return r.Err == nil }

// Observer receives scan telemetry.
type Observer interface {
	ObserveFetch(res FetchResult)
	ObserveScan(res ScanResult)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(FetchResult) {}
func (nopObserver) ObserveScan(ScanResult)   {}

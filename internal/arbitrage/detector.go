package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// DetectorConfig configures the detector.
type DetectorConfig struct {
	Adapters        []Adapter
	MaxWorkers      int
	VenueTimeout    time.Duration
	Filter          Filter
	ChainAware      bool
	WrappedPrefixes []string
	Observer        Observer
	Logger          *slog.Logger
}

// ScanResult describes one full scan.
type ScanResult struct {
	Report        domain.Report
	Fetches       []FetchResult
	Quotes        int
	Retained      int
	Rejected      int
	Collisions    int
	Opportunities int
	Duration      time.Duration
}

// FailedVenues returns the number of adapter calls that failed.
func (r ScanResult) FailedVenues() int {
	n := 0
	for _, f := range r.Fetches {
		if !f.OK() {
			n++
		}
	}
	return n
}

// Detector runs the full scan: fetch from all venues, aggregate, compute
// spreads and rank. It keeps no state between scans.
type Detector struct {
	fetcher    *Fetcher
	aggregator *Aggregator
	filter     Filter
	observer   Observer
	logger     *slog.Logger
}

// NewDetector creates a detector over the configured adapters.
func NewDetector(cfg DetectorConfig) *Detector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Detector{
		fetcher:    NewFetcher(cfg.Adapters, cfg.MaxWorkers, cfg.VenueTimeout, logger),
		aggregator: NewAggregator(NewNormalizer(cfg.WrappedPrefixes...), cfg.ChainAware, logger),
		filter:     cfg.Filter,
		observer:   obs,
		logger:     logger.With(slog.String("component", "arb_detector")),
	}
}

// Scan fetches quotes from every venue and returns the ranked report. Venue
// failures are logged and skipped; when every venue fails the report is
// empty. Scan never returns an error.
func (d *Detector) Scan(ctx context.Context) ScanResult {
	start := time.Now()
	fetches := d.fetcher.FetchAll(ctx)

	var quotes []domain.Quote
	for _, f := range fetches {
		d.observer.ObserveFetch(f)
		if f.OK() {
			quotes = append(quotes, f.Quotes...)
		}
	}

	res := d.Evaluate(quotes)
	res.Fetches = fetches
	res.Duration = time.Since(start)

	if len(fetches) > 0 && res.FailedVenues() == len(fetches) {
		d.logger.Error("all venues failed, report is empty", slog.Int("venues", len(fetches)))
	}
	d.logger.Info("scan complete",
		slog.Int("venues", len(fetches)),
		slog.Int("failed_venues", res.FailedVenues()),
		slog.Int("quotes", res.Quotes),
		slog.Int("rejected", res.Rejected),
		slog.Int("collisions", res.Collisions),
		slog.Int("spot", len(res.Report.Spot)),
		slog.Int("futures", len(res.Report.Futures)),
		slog.Int("dex", len(res.Report.Dex)),
		slog.Duration("duration", res.Duration),
	)
	d.observer.ObserveScan(res)
	return res
}

// Evaluate runs the pure part of a scan over already fetched quotes.
func (d *Detector) Evaluate(quotes []domain.Quote) ScanResult {
	agg := d.aggregator.Aggregate(quotes)
	opps := ComputeSpreads(agg.Sets)
	return ScanResult{
		Report:        Rank(opps, d.filter),
		Quotes:        len(quotes),
		Retained:      agg.Retained,
		Rejected:      len(agg.Rejected),
		Collisions:    agg.Collisions,
		Opportunities: len(opps),
	}
}

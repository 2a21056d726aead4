package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// DefaultVenueTimeout bounds a single adapter call.
const DefaultVenueTimeout = 10 * time.Second

// Fetcher calls every adapter on a bounded worker pool. Each call has its own
// deadline and no retries; a failing or slow venue never cancels its
// siblings.
type Fetcher struct {
	adapters   []Adapter
	maxWorkers int
	timeout    time.Duration
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher. maxWorkers <= 0 means one worker per adapter.
func NewFetcher(adapters []Adapter, maxWorkers int, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultVenueTimeout
	}
	return &Fetcher{
		adapters:   adapters,
		maxWorkers: maxWorkers,
		timeout:    timeout,
		logger:     logger.With(slog.String("component", "fetcher")),
	}
}

// Workers returns the pool size: min(adapters, maxWorkers).
func (f *Fetcher) Workers() int {
	n := len(f.adapters)
	if f.maxWorkers > 0 && f.maxWorkers < n {
		n = f.maxWorkers
	}
	return n
}

// FetchAll returns one result per adapter, in adapter order. It returns only
// after every call has finished or hit its deadline.
func (f *Fetcher) FetchAll(ctx context.Context) []FetchResult {
	results := make([]FetchResult, len(f.adapters))
	if len(f.adapters) == 0 {
		return results
	}

	// Plain Group: a venue error must not cancel the other calls.
	var g errgroup.Group
	g.SetLimit(f.Workers())
	for i, a := range f.adapters {
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, a)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

type fetchOutcome struct {
	quotes []domain.Quote
	err    error
}

func (f *Fetcher) fetchOne(ctx context.Context, a Adapter) FetchResult {
	start := time.Now()
	res := FetchResult{Adapter: a.Name(), Kind: a.Kind()}

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	done := make(chan fetchOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchOutcome{err: domain.NewVenueError(a.Name(), domain.ReasonPanic, fmt.Errorf("%v", r))}
			}
		}()
		quotes, err := a.Fetch(callCtx)
		done <- fetchOutcome{quotes: quotes, err: err}
	}()

	var out fetchOutcome
	select {
	case out = <-done:
	case <-callCtx.Done():
		// The adapter may have finished at the deadline.
		select {
		case out = <-done:
		default:
			out = fetchOutcome{err: callCtx.Err()}
		}
	}

	res.Elapsed = time.Since(start)
	if out.err != nil {
		res.Err = classify(a.Name(), out.err)
		f.logger.Warn("venue fetch failed",
			slog.String("venue", a.Name()),
			slog.Duration("elapsed", res.Elapsed),
			slog.String("error", res.Err.Error()),
		)
		return res
	}
	res.Quotes = out.quotes
	f.logger.Debug("venue fetched",
		slog.String("venue", a.Name()),
		slog.Int("quotes", len(out.quotes)),
		slog.Duration("elapsed", res.Elapsed),
	)
	return res
}

// classify makes sure every failure surfaces as a *domain.VenueError.
func classify(venue string, err error) error {
	var ve *domain.VenueError
	if errors.As(err, &ve) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewVenueError(venue, domain.ReasonTimeout, err)
	}
	return domain.NewVenueError(venue, domain.ReasonTransport, err)
}

// FailureReason extracts the venue failure reason from a fetch error.
func FailureReason(err error) domain.VenueFailureReason {
	var ve *domain.VenueError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return domain.ReasonTransport
}

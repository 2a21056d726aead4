package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// SinkObserver records the outcome of each sink write.
type SinkObserver interface {
	ObserveSink(sink string, elapsed time.Duration, err error)
}

// ReportService fans finished snapshots out to every configured sink and
// serves the latest one to readers.
type ReportService struct {
	sinks    []domain.ReportSink
	cache    domain.ReportCache
	observer SinkObserver
	logger   *slog.Logger

	mu     sync.RWMutex
	latest *domain.Snapshot
}

// NewReportService creates a ReportService. cache and observer may be nil.
func NewReportService(sinks []domain.ReportSink, cache domain.ReportCache, observer SinkObserver, logger *slog.Logger) *ReportService {
	return &ReportService{
		sinks:    sinks,
		cache:    cache,
		observer: observer,
		logger:   logger.With(slog.String("component", "report_service")),
	}
}

// Publish records snap as the latest snapshot and hands it to every sink in
// order. A failing sink does not stop the others; the returned error joins
// all sink failures.
func (s *ReportService) Publish(ctx context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()

	var errs []error
	for _, sink := range s.sinks {
		start := time.Now()
		err := sink.Store(ctx, snap)
		if s.observer != nil {
			s.observer.ObserveSink(sink.Name(), time.Since(start), err)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "sink failed",
				slog.String("sink", sink.Name()),
				slog.String("run_id", snap.RunID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		s.logger.DebugContext(ctx, "sink stored snapshot",
			slog.String("sink", sink.Name()),
			slog.String("run_id", snap.RunID),
		)
	}
	return errors.Join(errs...)
}

// Remember records a snapshot produced elsewhere as the latest one unless a
// newer snapshot is already held. Sinks are not invoked.
func (s *ReportService) Remember(_ context.Context, snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest != nil && s.latest.GeneratedAt.After(snap.GeneratedAt) {
		return
	}
	s.latest = &snap
}

// Latest returns the most recent snapshot published by this process,
// falling back to the shared cache when nothing was published locally.
func (s *ReportService) Latest(ctx context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return *latest, nil
	}
	if s.cache == nil {
		return domain.Snapshot{}, domain.ErrNotFound
	}

	raw, err := s.cache.Latest(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("report_service: decode cached snapshot: %w", err)
	}
	return snap, nil
}

// DecodeSnapshot parses the JSON form written by domain.Snapshot.MarshalJSON.
// Display fields that are not part of the wire form (raw spread, venue ids)
// are filled from their rendered counterparts.
func DecodeSnapshot(raw []byte) (domain.Snapshot, error) {
	var wire struct {
		RunID       string    `json:"runId"`
		GeneratedAt time.Time `json:"generatedAt"`
		Report      struct {
			Spot    []domain.ReportEntry `json:"spot"`
			Futures []domain.ReportEntry `json:"futures"`
			Dex     []domain.ReportEntry `json:"dex"`
		} `json:"report"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{
		RunID:       wire.RunID,
		GeneratedAt: wire.GeneratedAt,
		Report: domain.Report{
			Spot:    fromEntries(domain.CategorySpot, wire.Report.Spot),
			Futures: fromEntries(domain.CategoryFutures, wire.Report.Futures),
			Dex:     fromEntries(domain.CategoryDex, wire.Report.Dex),
		},
	}, nil
}

func fromEntries(c domain.Category, entries []domain.ReportEntry) []domain.SpreadOpportunity {
	out := make([]domain.SpreadOpportunity, 0, len(entries))
	for _, e := range entries {
		o := domain.SpreadOpportunity{
			Symbol:    e.Symbol,
			Category:  c,
			BuyVenue:  e.BuyAt,
			SellVenue: e.SellAt,
			BuyLabel:  e.BuyAt,
			SellLabel: e.SellAt,
			BuyPrice:  e.BuyPrice,
			SellPrice: e.SellPrice,
			SpreadPct: e.Spread,
		}
		if e.Networks != "" {
			o.BuyNetwork = e.Networks
		}
		if e.Liquidity != "" {
			if usd, ok := domain.ParseUSD(e.Liquidity); ok {
				o.LiquidityUSD = usd
				o.HasLiquidity = true
			}
		}
		out = append(out, o)
	}
	return out
}

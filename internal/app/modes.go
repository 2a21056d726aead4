package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/spreadscan/internal/arbitrage"
	"github.com/alanyoungcy/spreadscan/internal/cache/redis"
	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/feed"
	"github.com/alanyoungcy/spreadscan/internal/pipeline"
	"github.com/alanyoungcy/spreadscan/internal/server"
	"github.com/alanyoungcy/spreadscan/internal/server/handler"
	"github.com/alanyoungcy/spreadscan/internal/server/ws"
	"github.com/alanyoungcy/spreadscan/internal/service"
)

// OnceMode runs a single scan, publishes it and returns.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting once mode")

	scans, _, err := a.buildScan(ctx, deps, deps.Sinks)
	if err != nil {
		return err
	}
	snap, err := scans.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}
	a.logger.InfoContext(ctx, "scan complete",
		slog.String("run_id", snap.RunID),
		slog.Int("spot", len(snap.Report.Spot)),
		slog.Int("futures", len(snap.Report.Futures)),
		slog.Int("dex", len(snap.Report.Dex)),
	)
	return nil
}

// LoopMode scans on a fixed interval until the context is cancelled.
func (a *App) LoopMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting loop mode")

	scans, _, err := a.buildScan(ctx, deps, deps.Sinks)
	if err != nil {
		return err
	}
	return pipeline.NewOrchestrator(scans, a.cfg.Scan.Interval.Duration, a.logger).Run(ctx)
}

// ServerMode runs the scan loop and serves the latest report over HTTP and
// WebSocket. With Redis enabled, snapshots reach the hub through the report
// channel so replicas that lose the scan lock still push updates.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	var reports *service.ReportService
	hub := ws.NewHub(func(ctx context.Context) (domain.Snapshot, error) {
		return reports.Latest(ctx)
	}, a.logger)

	sinks := deps.Sinks
	if deps.SignalBus == nil {
		sinks = append(append([]domain.ReportSink(nil), sinks...), hub)
	}
	scans, reports, err := a.buildScan(ctx, deps, sinks)
	if err != nil {
		return err
	}

	interval := a.cfg.Scan.Interval.Duration
	health := handler.NewHealthHandler(deps.Checks, reports, 3*interval, a.logger)
	status := handler.NewStatusHandler(handler.Status{
		Mode:       a.cfg.Mode,
		Version:    Version,
		Adapters:   a.adapterNames,
		Proxies:    a.cfg.VenueProxies(),
		Sinks:      namesOf(sinks),
		ChainAware: a.cfg.Scan.ChainAware,
		Interval:   interval.String(),
		StartedAt:  a.startedAt,
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, server.Handlers{
		Health:  health,
		Spreads: handler.NewSpreadsHandler(reports, a.logger),
		Status:  status,
		Metrics: deps.Metrics.Handler(),
	}, hub, deps.RateLimiter, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	if deps.SignalBus != nil {
		relay := feed.NewSnapshotRelay(deps.SignalBus, redis.ReportChannel, service.DecodeSnapshot, a.logger,
			func(ctx context.Context, snap domain.Snapshot) {
				reports.Remember(ctx, snap)
				_ = hub.Store(ctx, snap)
			},
		)
		g.Go(func() error {
			return relay.Run(ctx)
		})
	}

	g.Go(func() error {
		return pipeline.NewOrchestrator(scans, interval, a.logger).Run(ctx)
	})

	g.Go(func() error {
		a.logger.InfoContext(ctx, "http server listening", slog.Int("port", a.cfg.Server.Port))
		if err := srv.Start(); err != nil {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildScan assembles the adapter registry, detector, report service and
// scan service for one mode.
func (a *App) buildScan(ctx context.Context, deps *Dependencies, sinks []domain.ReportSink) (*service.ScanService, *service.ReportService, error) {
	reg, closeRegistry, err := BuildRegistry(ctx, a.cfg, deps.RateLimiter)
	a.closers = append(a.closers, closeRegistry)
	if err != nil {
		return nil, nil, fmt.Errorf("app: build adapters: %w", err)
	}
	a.adapterNames = reg.List()
	a.logger.InfoContext(ctx, "venue adapters ready", slog.Any("adapters", a.adapterNames))

	detector := arbitrage.NewDetector(arbitrage.DetectorConfig{
		Adapters:     reg.Adapters(),
		MaxWorkers:   a.cfg.Scan.MaxWorkers,
		VenueTimeout: a.cfg.Scan.VenueTimeout.Duration,
		Filter: arbitrage.Filter{
			MinSpreadPct:    a.cfg.Scan.MinSpreadPct,
			MaxSpreadPct:    a.cfg.Scan.MaxSpreadPct,
			MinLiquidityUSD: a.cfg.Scan.MinLiquidityUSD,
			TopN:            a.cfg.Scan.TopN,
		},
		ChainAware:      a.cfg.Scan.ChainAware,
		WrappedPrefixes: a.cfg.Scan.WrappedPrefixes,
		Observer:        deps.Metrics,
		Logger:          a.logger,
	})

	reports := service.NewReportService(sinks, deps.ReportCache, deps.Metrics, a.logger)
	scans := service.NewScanService(detector, reports, deps.LockManager, a.cfg.Redis.LockTTL.Duration, a.logger)
	return scans, reports, nil
}

func namesOf(sinks []domain.ReportSink) []string {
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	return names
}

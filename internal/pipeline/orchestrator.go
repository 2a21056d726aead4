// Package pipeline schedules recurring scans.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// ScanRunner performs one scan-and-publish cycle.
type ScanRunner interface {
	RunOnce(ctx context.Context) (domain.Snapshot, error)
}

// Orchestrator runs a scan immediately and then on every tick of interval.
// Cycles never overlap: a slow scan delays the next tick instead of
// stacking.
type Orchestrator struct {
	runner   ScanRunner
	interval time.Duration
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(runner ScanRunner, interval time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runner:   runner,
		interval: interval,
		logger:   logger.With(slog.String("component", "orchestrator")),
	}
}

// Run loops until ctx is cancelled and then returns nil.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("scan loop starting", slog.Duration("interval", o.interval))

	o.cycle(ctx)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("scan loop stopped")
			return nil
		case <-ticker.C:
			o.cycle(ctx)
		}
	}
}

func (o *Orchestrator) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_, err := o.runner.RunOnce(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrLockHeld):
		o.logger.Debug("cycle skipped, another replica holds the scan lock")
	case ctx.Err() != nil:
	default:
		o.logger.Error("scan cycle failed", slog.String("error", err.Error()))
	}
}

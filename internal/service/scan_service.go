package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/spreadscan/internal/arbitrage"
	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// ScanLockKey is the distributed lock that serializes scans across replicas.
const ScanLockKey = "scan"

// Scanner runs one detection pass.
type Scanner interface {
	Scan(ctx context.Context) arbitrage.ScanResult
}

// ScanService runs a scan, stamps the report and publishes it.
type ScanService struct {
	scanner Scanner
	reports *ReportService
	locks   domain.LockManager
	lockTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewScanService creates a ScanService. locks may be nil, in which case
// scans are never skipped.
func NewScanService(scanner Scanner, reports *ReportService, locks domain.LockManager, lockTTL time.Duration, logger *slog.Logger) *ScanService {
	return &ScanService{
		scanner: scanner,
		reports: reports,
		locks:   locks,
		lockTTL: lockTTL,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "scan_service")),
	}
}

// RunOnce performs a single scan and publishes the snapshot. It returns
// domain.ErrLockHeld when another replica is scanning. Sink failures are
// logged by the report service and do not fail the cycle.
func (s *ScanService) RunOnce(ctx context.Context) (domain.Snapshot, error) {
	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, ScanLockKey, s.lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				s.logger.InfoContext(ctx, "scan skipped, lock held by another replica")
			}
			return domain.Snapshot{}, fmt.Errorf("scan_service: acquire lock: %w", err)
		}
		defer unlock()
	}

	runID := uuid.NewString()
	started := s.now().UTC()
	res := s.scanner.Scan(ctx)

	snap := domain.Snapshot{
		RunID:       runID,
		GeneratedAt: started,
		Report:      res.Report,
	}
	if err := s.reports.Publish(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "snapshot published with sink failures",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "scan published",
		slog.String("run_id", runID),
		slog.Int("opportunities", snap.Report.Len()),
		slog.Int("failed_venues", res.FailedVenues()),
		slog.Duration("duration", res.Duration),
	)
	return snap, nil
}

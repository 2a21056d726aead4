package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// ReportChannel is the pub/sub channel every new snapshot is published on.
const ReportChannel = "spreads"

// Sink stores each snapshot in the ReportCache and announces it on the bus.
type Sink struct {
	cache *ReportCache
	bus   *SignalBus
}

// NewSink creates a Sink. bus may be nil to skip publishing.
func NewSink(cache *ReportCache, bus *SignalBus) *Sink {
	return &Sink{cache: cache, bus: bus}
}

func (s *Sink) Name() string { return "redis" }

// Store caches snap and publishes it on ReportChannel.
func (s *Sink) Store(ctx context.Context, snap domain.Snapshot) error {
	if err := s.cache.SetLatest(ctx, snap); err != nil {
		return err
	}
	if s.bus == nil {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: encode snapshot: %w", err)
	}
	return s.bus.Publish(ctx, ReportChannel, raw)
}

var _ domain.ReportSink = (*Sink)(nil)

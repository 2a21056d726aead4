// Package feed relays snapshots published by other replicas into this
// process.
package feed

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// Decoder parses a published snapshot payload.
type Decoder func(raw []byte) (domain.Snapshot, error)

// Handler receives each relayed snapshot.
type Handler func(ctx context.Context, snap domain.Snapshot)

// SnapshotRelay subscribes to the report channel on the signal bus and hands
// every snapshot to its handlers. Replicas that lost the scan lock use it to
// keep serving the newest report.
type SnapshotRelay struct {
	bus      domain.SignalBus
	channel  string
	decode   Decoder
	handlers []Handler
	logger   *slog.Logger
}

// NewSnapshotRelay creates a SnapshotRelay on channel.
func NewSnapshotRelay(bus domain.SignalBus, channel string, decode Decoder, logger *slog.Logger, handlers ...Handler) *SnapshotRelay {
	return &SnapshotRelay{
		bus:      bus,
		channel:  channel,
		decode:   decode,
		handlers: handlers,
		logger:   logger.With(slog.String("component", "snapshot_relay")),
	}
}

// Run relays messages until ctx is cancelled or the subscription closes.
func (r *SnapshotRelay) Run(ctx context.Context) error {
	ch, err := r.bus.Subscribe(ctx, r.channel)
	if err != nil {
		return err
	}
	r.logger.Info("snapshot relay started", slog.String("channel", r.channel))
	defer r.logger.Info("snapshot relay stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			snap, err := r.decode(data)
			if err != nil {
				r.logger.Debug("snapshot relay decode failed",
					slog.String("error", err.Error()),
					slog.Int("payload_len", len(data)),
				)
				continue
			}
			for _, h := range r.handlers {
				h(ctx, snap)
			}
		}
	}
}

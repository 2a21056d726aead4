package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// ReportCache implements domain.ReportCache. The encoded snapshot lives at
// "spreads:latest"; a small hash at "spreads:meta" carries run id, time and
// per-section counts for cheap status checks.
type ReportCache struct {
	client *Client
	ttl    time.Duration
}

// NewReportCache creates a ReportCache. A zero ttl keeps the entry forever.
func NewReportCache(c *Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: c, ttl: ttl}
}

// SetLatest overwrites the cached snapshot.
func (rc *ReportCache) SetLatest(ctx context.Context, snap domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: encode snapshot: %w", err)
	}
	rdb := rc.client.Underlying()
	latest, meta := rc.client.Key("spreads", "latest"), rc.client.Key("spreads", "meta")

	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, latest, raw, rc.ttl)
		pipe.HSet(ctx, meta, map[string]interface{}{
			"run_id":       snap.RunID,
			"generated_at": strconv.FormatInt(snap.GeneratedAt.UnixNano(), 10),
			"spot":         len(snap.Report.Spot),
			"futures":      len(snap.Report.Futures),
			"dex":          len(snap.Report.Dex),
		})
		if rc.ttl > 0 {
			pipe.Expire(ctx, meta, rc.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: set latest snapshot: %w", err)
	}
	return nil
}

// Latest returns the encoded snapshot, or domain.ErrNotFound.
func (rc *ReportCache) Latest(ctx context.Context) ([]byte, error) {
	raw, err := rc.client.Underlying().Get(ctx, rc.client.Key("spreads", "latest")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get latest snapshot: %w", err)
	}
	return raw, nil
}

// Compile-time interface check.
var _ domain.ReportCache = (*ReportCache)(nil)

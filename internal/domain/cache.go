package domain

import (
	"context"
	"time"
)

// ReportCache keeps the most recent snapshot for fast reads.
type ReportCache interface {
	SetLatest(ctx context.Context, snap Snapshot) error
	// Latest returns the encoded snapshot, or ErrNotFound.
	Latest(ctx context.Context) ([]byte, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

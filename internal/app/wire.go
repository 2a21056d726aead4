package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/spreadscan/internal/blob"
	"github.com/alanyoungcy/spreadscan/internal/blob/localfs"
	s3blob "github.com/alanyoungcy/spreadscan/internal/blob/s3"
	"github.com/alanyoungcy/spreadscan/internal/cache/redis"
	"github.com/alanyoungcy/spreadscan/internal/config"
	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/metrics"
	"github.com/alanyoungcy/spreadscan/internal/notify"
	"github.com/alanyoungcy/spreadscan/internal/server/handler"
	"github.com/alanyoungcy/spreadscan/internal/store/postgres"
)

// Dependencies bundles the infrastructure the modes need. Anything backed by
// an optional service is nil when that service is disabled.
type Dependencies struct {
	// Caches
	ReportCache domain.ReportCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Stores
	SnapshotStore domain.SnapshotStore

	// Sinks receive every published snapshot, in order.
	Sinks []domain.ReportSink

	// Checks ping each configured backing service for /api/health.
	Checks map[string]handler.CheckFunc

	Notifier *notify.Notifier
	Metrics  *metrics.Metrics
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Checks:  make(map[string]handler.CheckFunc),
		Metrics: metrics.New(),
	}

	// --- Local report file ---
	if cfg.Output.Enabled {
		deps.Sinks = append(deps.Sinks,
			blob.NewReportSink("file", localfs.NewWriter(cfg.Output.Dir), cfg.Output.Path))
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		reportCache := redis.NewReportCache(redisClient, cfg.Redis.ReportTTL.Duration)
		bus := redis.NewSignalBus(redisClient)
		deps.ReportCache = reportCache
		deps.SignalBus = bus
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.Sinks = append(deps.Sinks, redis.NewSink(reportCache, bus))
		deps.Checks["redis"] = redisClient.Ping
	}

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		store := postgres.NewSnapshotStore(pgClient.Pool())
		deps.SnapshotStore = store
		deps.Sinks = append(deps.Sinks, store)
		deps.Checks["postgres"] = pgClient.Pool().Ping
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			KeyPrefix:      cfg.S3.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Sinks = append(deps.Sinks,
			blob.NewReportSink("s3", s3blob.NewWriter(s3Client), cfg.S3.Key))
		deps.Checks["s3"] = s3Client.Health
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			notify.TelegramAPI,
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	if deps.Notifier.Enabled(notify.EventSpreadDetected) {
		deps.Sinks = append(deps.Sinks, notify.NewSpreadAlerter(deps.Notifier, notify.AlertConfig{
			MinSpreadPct: cfg.Scan.AlertMinSpreadPct,
			MaxPerAlert:  cfg.Notify.MaxPerAlert,
			Cooldown:     cfg.Notify.Cooldown.Duration,
		}))
	}

	return deps, cleanup, nil
}

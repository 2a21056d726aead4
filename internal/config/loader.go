package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads the TOML file at path over Defaults, loads .env when present and
// applies SPREADSCAN_* environment overrides. An empty path skips the file.
// The result is not validated; call Config.Validate.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		mergeVenueDefaults(&cfg, md)
	}

	// Missing .env is not an error.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// mergeVenueDefaults restores default fields of venue tables the file
// declares only partially. TOML decoding replaces whole map entries.
func mergeVenueDefaults(cfg *Config, md toml.MetaData) {
	defaults := Defaults().Venues
	for id, v := range cfg.Venues {
		d, ok := defaults[id]
		if !ok {
			continue
		}
		if !md.IsDefined("venues", id, "enabled") {
			v.Enabled = d.Enabled
		}
		if !md.IsDefined("venues", id, "kinds") {
			v.Kinds = d.Kinds
		}
		if !md.IsDefined("venues", id, "rate_limit") {
			v.RateLimit = d.RateLimit
		}
		if !md.IsDefined("venues", id, "rate_window") {
			v.RateWindow = d.RateWindow
		}
		cfg.Venues[id] = v
	}
}

func applyEnvOverrides(cfg *Config) {
	// ── Top-level ──
	setStr(&cfg.Mode, "SPREADSCAN_MODE")
	setStr(&cfg.LogLevel, "SPREADSCAN_LOG_LEVEL")

	// ── Scan ──
	setFloat64(&cfg.Scan.MinSpreadPct, "SPREADSCAN_SCAN_MIN_SPREAD_PCT")
	setFloat64(&cfg.Scan.MaxSpreadPct, "SPREADSCAN_SCAN_MAX_SPREAD_PCT")
	setFloat64(&cfg.Scan.MinLiquidityUSD, "SPREADSCAN_SCAN_MIN_LIQUIDITY_USD")
	setInt(&cfg.Scan.TopN, "SPREADSCAN_SCAN_TOP_N")
	setStringSlice(&cfg.Scan.Symbols, "SPREADSCAN_SCAN_SYMBOLS")
	setStr(&cfg.Scan.QuoteAsset, "SPREADSCAN_SCAN_QUOTE_ASSET")
	setInt(&cfg.Scan.MaxWorkers, "SPREADSCAN_SCAN_MAX_WORKERS")
	setDuration(&cfg.Scan.VenueTimeout, "SPREADSCAN_SCAN_VENUE_TIMEOUT")
	setDuration(&cfg.Scan.Interval, "SPREADSCAN_SCAN_INTERVAL")
	setBool(&cfg.Scan.ChainAware, "SPREADSCAN_SCAN_CHAIN_AWARE")
	setStringSlice(&cfg.Scan.WrappedPrefixes, "SPREADSCAN_SCAN_WRAPPED_PREFIXES")
	setFloat64(&cfg.Scan.AlertMinSpreadPct, "SPREADSCAN_SCAN_ALERT_MIN_SPREAD_PCT")

	// ── Venues ──
	for _, id := range KnownVenues {
		v, ok := cfg.Venues[id]
		if !ok {
			continue
		}
		prefix := "SPREADSCAN_VENUES_" + strings.ToUpper(id) + "_"
		setBool(&v.Enabled, prefix+"ENABLED")
		setStringSlice(&v.Kinds, prefix+"KINDS")
		setStr(&v.Proxy, prefix+"PROXY")
		setStr(&v.BaseURL, prefix+"BASE_URL")
		setStr(&v.FuturesBaseURL, prefix+"FUTURES_BASE_URL")
		setStr(&v.Networks, prefix+"NETWORKS")
		setInt(&v.RateLimit, prefix+"RATE_LIMIT")
		cfg.Venues[id] = v
	}

	// ── DEX ──
	setBool(&cfg.DexScreener.Enabled, "SPREADSCAN_DEXSCREENER_ENABLED")
	setStr(&cfg.DexScreener.BaseURL, "SPREADSCAN_DEXSCREENER_BASE_URL")
	setStr(&cfg.DexScreener.Proxy, "SPREADSCAN_DEXSCREENER_PROXY")
	setFloat64(&cfg.DexScreener.MinLiquidityUSD, "SPREADSCAN_DEXSCREENER_MIN_LIQUIDITY_USD")
	setStringSlice(&cfg.DexScreener.Queries, "SPREADSCAN_DEXSCREENER_QUERIES")
	setBool(&cfg.Uniswap.Enabled, "SPREADSCAN_UNISWAP_ENABLED")
	setStr(&cfg.Uniswap.RPCURL, "SPREADSCAN_UNISWAP_RPC_URL")

	// ── Output ──
	setBool(&cfg.Output.Enabled, "SPREADSCAN_OUTPUT_ENABLED")
	setStr(&cfg.Output.Dir, "SPREADSCAN_OUTPUT_DIR")
	setStr(&cfg.Output.Path, "SPREADSCAN_OUTPUT_PATH")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SPREADSCAN_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SPREADSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SPREADSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SPREADSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SPREADSCAN_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "SPREADSCAN_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "SPREADSCAN_REDIS_KEY_PREFIX")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "SPREADSCAN_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "SPREADSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // platform alias
	setStr(&cfg.Postgres.Host, "SPREADSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SPREADSCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SPREADSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SPREADSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SPREADSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SPREADSCAN_POSTGRES_SSL_MODE")
	setBool(&cfg.Postgres.RunMigrations, "SPREADSCAN_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SPREADSCAN_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SPREADSCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SPREADSCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "SPREADSCAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SPREADSCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SPREADSCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SPREADSCAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SPREADSCAN_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.KeyPrefix, "SPREADSCAN_S3_KEY_PREFIX")
	setStr(&cfg.S3.Key, "SPREADSCAN_S3_KEY")

	// ── Server ──
	setInt(&cfg.Server.Port, "SPREADSCAN_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT") // platform alias
	setStringSlice(&cfg.Server.CORSOrigins, "SPREADSCAN_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SPREADSCAN_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "SPREADSCAN_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "SPREADSCAN_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SPREADSCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SPREADSCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SPREADSCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SPREADSCAN_NOTIFY_EVENTS")
	setDuration(&cfg.Notify.Cooldown, "SPREADSCAN_NOTIFY_COOLDOWN")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the variable is
// set, non-empty and parses.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

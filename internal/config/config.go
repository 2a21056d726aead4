// Package config defines the spread scanner configuration and its
// validation rules.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration. Fields are decoded from a TOML file over
// Defaults and then overridden by SPREADSCAN_* environment variables.
type Config struct {
	Mode        string                 `toml:"mode"`
	LogLevel    string                 `toml:"log_level"`
	Scan        ScanConfig             `toml:"scan"`
	Venues      map[string]VenueConfig `toml:"venues"`
	DexScreener DexScreenerConfig      `toml:"dexscreener"`
	Uniswap     UniswapConfig          `toml:"uniswap"`
	Output      OutputConfig           `toml:"output"`
	Redis       RedisConfig            `toml:"redis"`
	Postgres    PostgresConfig         `toml:"postgres"`
	S3          S3Config               `toml:"s3"`
	Server      ServerConfig           `toml:"server"`
	Notify      NotifyConfig           `toml:"notify"`
}

// ScanConfig holds detection filters and scheduling.
type ScanConfig struct {
	MinSpreadPct    float64  `toml:"min_spread_pct"`
	MaxSpreadPct    float64  `toml:"max_spread_pct"`
	MinLiquidityUSD float64  `toml:"min_liquidity_usd"`
	TopN            int      `toml:"top_n"`
	Symbols         []string `toml:"symbols"`
	QuoteAsset      string   `toml:"quote_asset"`
	MaxWorkers      int      `toml:"max_workers"`
	VenueTimeout    duration `toml:"venue_timeout"`
	Interval        duration `toml:"interval"`
	// ChainAware keeps one DEX quote per chain instead of one per symbol.
	ChainAware        bool     `toml:"chain_aware"`
	WrappedPrefixes   []string `toml:"wrapped_prefixes"`
	AlertMinSpreadPct float64  `toml:"alert_min_spread_pct"`
}

// VenueConfig configures one centralized exchange. Each venue carries its
// own proxy; there is no positional pairing of proxies to venues.
type VenueConfig struct {
	Enabled        bool     `toml:"enabled"`
	Kinds          []string `toml:"kinds"`
	Proxy          string   `toml:"proxy"`
	BaseURL        string   `toml:"base_url"`
	FuturesBaseURL string   `toml:"futures_base_url"`
	// Networks lists deposit networks shown next to the venue's quotes,
	// e.g. "ERC20, TRC20".
	Networks   string   `toml:"networks"`
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// HasKind reports whether kind is enabled for the venue.
func (v VenueConfig) HasKind(kind string) bool {
	return slices.Contains(v.Kinds, kind)
}

// DexScreenerConfig configures the DexScreener pool search adapter.
type DexScreenerConfig struct {
	Enabled         bool    `toml:"enabled"`
	BaseURL         string  `toml:"base_url"`
	Proxy           string  `toml:"proxy"`
	MinLiquidityUSD float64 `toml:"min_liquidity_usd"`
	// Queries defaults to scan.symbols when empty.
	Queries    []string `toml:"queries"`
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// UniswapConfig configures on-chain Uniswap V2 pair reads.
type UniswapConfig struct {
	Enabled bool                `toml:"enabled"`
	RPCURL  string              `toml:"rpc_url"`
	Network string              `toml:"network"`
	Pools   []UniswapPoolConfig `toml:"pools"`
}

// UniswapPoolConfig describes one base/stablecoin pair contract.
type UniswapPoolConfig struct {
	Address       string `toml:"address"`
	BaseSymbol    string `toml:"base_symbol"`
	BaseDecimals  int    `toml:"base_decimals"`
	QuoteDecimals int    `toml:"quote_decimals"`
	BaseIsToken0  bool   `toml:"base_is_token0"`
}

// OutputConfig controls the local report file.
type OutputConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	Path    string `toml:"path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	KeyPrefix  string   `toml:"key_prefix"`
	ReportTTL  duration `toml:"report_ttl"`
	LockTTL    duration `toml:"lock_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	KeyPrefix      string `toml:"key_prefix"`
	Key            string `toml:"key"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey, when set, is required on /api routes.
	APIKey string `toml:"api_key"`
	// RateLimit is requests per RateWindow per client IP; it needs Redis.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	Cooldown          duration `toml:"cooldown"`
	MaxPerAlert       int      `toml:"max_per_alert"`
}

// duration wraps time.Duration so TOML strings like "10s" decode.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Venue identifiers understood by the wiring layer.
const (
	VenueBinance = "binance"
	VenueBybit   = "bybit"
	VenueOKX     = "okx"
)

// KnownVenues lists the supported centralized exchanges.
var KnownVenues = []string{VenueBinance, VenueBybit, VenueOKX}

// Defaults returns a Config with every section populated. The three CEX
// venues are enabled for spot and futures; DexScreener is on; everything
// that needs infrastructure is off.
func Defaults() Config {
	cexKinds := []string{"spot", "futures"}
	return Config{
		Mode:     "once",
		LogLevel: "info",
		Scan: ScanConfig{
			MinSpreadPct:      0.1,
			MaxSpreadPct:      50,
			MinLiquidityUSD:   10_000,
			TopN:              0,
			Symbols:           []string{"BTC", "ETH", "SOL"},
			QuoteAsset:        "USDT",
			MaxWorkers:        8,
			VenueTimeout:      duration{10 * time.Second},
			Interval:          duration{time.Minute},
			ChainAware:        false,
			WrappedPrefixes:   []string{"W"},
			AlertMinSpreadPct: 1.0,
		},
		Venues: map[string]VenueConfig{
			VenueBinance: {Enabled: true, Kinds: cexKinds, RateLimit: 10, RateWindow: duration{time.Second}},
			VenueBybit:   {Enabled: true, Kinds: cexKinds, RateLimit: 10, RateWindow: duration{time.Second}},
			VenueOKX:     {Enabled: true, Kinds: cexKinds, RateLimit: 10, RateWindow: duration{time.Second}},
		},
		DexScreener: DexScreenerConfig{
			Enabled:         true,
			MinLiquidityUSD: 10_000,
			RateLimit:       5,
			RateWindow:      duration{time.Second},
		},
		Uniswap: UniswapConfig{
			Network: "ethereum",
		},
		Output: OutputConfig{
			Enabled: true,
			Dir:     ".",
			Path:    "data/spreads.json",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			KeyPrefix:  "spreadscan",
			ReportTTL:  duration{10 * time.Minute},
			LockTTL:    duration{2 * time.Minute},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		S3: S3Config{
			Region: "us-east-1",
			Key:    "spreads.json",
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events:      []string{"spread_detected"},
			Cooldown:    duration{15 * time.Minute},
			MaxPerAlert: 10,
		},
	}
}

var validModes = map[string]bool{
	"once":   true,
	"loop":   true,
	"server": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validKinds = map[string]bool{
	"spot":    true,
	"futures": true,
}

// EnabledVenues returns the ids of enabled CEX venues in sorted order.
func (c *Config) EnabledVenues() []string {
	var ids []string
	for id, v := range c.Venues {
		if v.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// DexQueries returns the DexScreener search terms.
func (c *Config) DexQueries() []string {
	if len(c.DexScreener.Queries) > 0 {
		return c.DexScreener.Queries
	}
	return c.Scan.Symbols
}

// Validate checks Config for invalid or missing values and returns one error
// describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: once, loop, server)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Scan
	if c.Scan.MinSpreadPct >= c.Scan.MaxSpreadPct {
		errs = append(errs, fmt.Sprintf("scan: min_spread_pct (%g) must be below max_spread_pct (%g)", c.Scan.MinSpreadPct, c.Scan.MaxSpreadPct))
	}
	if c.Scan.MinLiquidityUSD < 0 {
		errs = append(errs, "scan: min_liquidity_usd must be >= 0")
	}
	if c.Scan.TopN < 0 {
		errs = append(errs, "scan: top_n must be >= 0 (0 keeps everything)")
	}
	if c.Scan.MaxWorkers < 1 {
		errs = append(errs, "scan: max_workers must be >= 1")
	}
	if c.Scan.VenueTimeout.Duration <= 0 {
		errs = append(errs, "scan: venue_timeout must be > 0")
	}
	if c.Scan.QuoteAsset == "" {
		errs = append(errs, "scan: quote_asset must not be empty")
	}
	for _, p := range c.Scan.WrappedPrefixes {
		if len(p) != 1 {
			errs = append(errs, fmt.Sprintf("scan: wrapped prefix %q must be a single letter", p))
		}
	}
	if m := strings.ToLower(c.Mode); (m == "loop" || m == "server") && c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be > 0 for mode "+c.Mode)
	}

	// Venues
	known := make(map[string]bool, len(KnownVenues))
	for _, id := range KnownVenues {
		known[id] = true
	}
	for _, id := range sortedKeys(c.Venues) {
		v := c.Venues[id]
		if !known[id] {
			errs = append(errs, fmt.Sprintf("venues.%s: unknown venue (valid: %s)", id, strings.Join(KnownVenues, ", ")))
			continue
		}
		if !v.Enabled {
			continue
		}
		if len(v.Kinds) == 0 {
			errs = append(errs, fmt.Sprintf("venues.%s: kinds must not be empty when enabled", id))
		}
		for _, k := range v.Kinds {
			if !validKinds[k] {
				errs = append(errs, fmt.Sprintf("venues.%s: unknown kind %q (valid: spot, futures)", id, k))
			}
		}
		if v.Proxy != "" {
			if u, err := url.Parse(v.Proxy); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, fmt.Sprintf("venues.%s: proxy %q is not a valid URL", id, v.Proxy))
			}
		}
		if v.RateLimit < 0 {
			errs = append(errs, fmt.Sprintf("venues.%s: rate_limit must be >= 0", id))
		}
	}

	// DEX
	if c.DexScreener.Enabled && len(c.DexQueries()) == 0 {
		errs = append(errs, "dexscreener: queries (or scan.symbols) must not be empty when enabled")
	}
	if c.Uniswap.Enabled {
		if c.Uniswap.RPCURL == "" {
			errs = append(errs, "uniswap: rpc_url is required when enabled")
		}
		if len(c.Uniswap.Pools) == 0 {
			errs = append(errs, "uniswap: at least one pool is required when enabled")
		}
		for i, p := range c.Uniswap.Pools {
			if !common.IsHexAddress(p.Address) {
				errs = append(errs, fmt.Sprintf("uniswap: pools[%d]: address %q is not a hex address", i, p.Address))
			}
			if p.BaseSymbol == "" {
				errs = append(errs, fmt.Sprintf("uniswap: pools[%d]: base_symbol must not be empty", i))
			}
			if p.BaseDecimals <= 0 || p.QuoteDecimals <= 0 {
				errs = append(errs, fmt.Sprintf("uniswap: pools[%d]: decimals must be > 0", i))
			}
		}
	}
	if len(c.EnabledVenues()) == 0 && !c.DexScreener.Enabled && !c.Uniswap.Enabled {
		errs = append(errs, "no venues enabled")
	}

	// Sinks
	if c.Output.Enabled && c.Output.Path == "" {
		errs = append(errs, "output: path must not be empty when enabled")
	}
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.LockTTL.Duration <= 0 {
			errs = append(errs, "redis: lock_ttl must be > 0")
		}
	}
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
		if c.S3.Key == "" {
			errs = append(errs, "s3: key must not be empty")
		}
	}

	// Server
	if strings.ToLower(c.Mode) == "server" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func sortedKeys(m map[string]VenueConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

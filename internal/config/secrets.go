package config

import (
	"net/url"
	"slices"
)

// RedactedConfig returns a copy of cfg with secrets replaced by "***" and
// proxy credentials stripped, safe to log.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	out.Venues = make(map[string]VenueConfig, len(cfg.Venues))
	for id, v := range cfg.Venues {
		v.Kinds = slices.Clone(v.Kinds)
		v.Proxy = redactURL(v.Proxy)
		out.Venues[id] = v
	}
	out.DexScreener.Proxy = redactURL(cfg.DexScreener.Proxy)
	out.DexScreener.Queries = slices.Clone(cfg.DexScreener.Queries)
	out.Uniswap.RPCURL = redactURL(cfg.Uniswap.RPCURL)
	out.Uniswap.Pools = slices.Clone(cfg.Uniswap.Pools)

	redact(&out.Redis.Password)
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Server.APIKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	out.Scan.Symbols = slices.Clone(cfg.Scan.Symbols)
	out.Scan.WrappedPrefixes = slices.Clone(cfg.Scan.WrappedPrefixes)
	out.Server.CORSOrigins = slices.Clone(cfg.Server.CORSOrigins)
	out.Notify.Events = slices.Clone(cfg.Notify.Events)
	return out
}

// VenueProxies returns the venue→proxy map with credentials redacted, for
// startup logging.
func (c *Config) VenueProxies() map[string]string {
	out := make(map[string]string)
	for id, v := range c.Venues {
		if v.Enabled && v.Proxy != "" {
			out[id] = redactURL(v.Proxy)
		}
	}
	return out
}

const redacted = "***"

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

// redactURL hides userinfo, path and query, which commonly carry API keys.
func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	if u.User != nil {
		u.User = url.User(redacted)
	}
	if u.Path != "" && u.Path != "/" {
		u.Path = "/" + redacted
		u.RawPath = ""
	}
	if u.RawQuery != "" {
		u.RawQuery = redacted
	}
	return u.String()
}

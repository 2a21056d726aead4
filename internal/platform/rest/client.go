// Package rest is the shared HTTP transport for venue adapters. Each venue
// gets its own client carrying that venue's proxy, and every failure is
// reported as a *domain.VenueError.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// maxBodyBytes caps a single response; full-market ticker dumps stay well below.
const maxBodyBytes = 32 << 20

// Config describes how to reach one venue.
type Config struct {
	Venue    string
	BaseURL  string
	ProxyURL string
	// Timeout is a backstop; callers bound each fetch with a context deadline.
	Timeout time.Duration
	// RateLimit requests per RateWindow, enforced through the RateLimiter
	// when one is supplied. Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Client performs GET requests against one venue.
type Client struct {
	venue      string
	baseURL    string
	httpClient *http.Client
	limiter    domain.RateLimiter
	rateLimit  int
	rateWindow time.Duration
}

// New creates a client. limiter may be nil.
func New(cfg Config, limiter domain.RateLimiter) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("rest: %s: parse proxy url: %w", cfg.Venue, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Second
	}
	return &Client{
		venue:      cfg.Venue,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		limiter:    limiter,
		rateLimit:  cfg.RateLimit,
		rateWindow: window,
	}, nil
}

// Venue returns the venue identifier the client was built for.
func (c *Client) Venue() string { return c.venue }

// GetJSON issues GET baseURL+path?params and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewVenueError(c.venue, domain.ReasonBadResponse, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

// Get issues GET baseURL+path?params and returns the raw body of a 2xx response.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.limiter != nil && c.rateLimit > 0 {
		if err := c.limiter.Wait(ctx, "venue:"+c.venue, c.rateLimit, c.rateWindow); err != nil {
			return nil, c.transportError(ctx, err)
		}
	}

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, domain.NewVenueError(c.venue, domain.ReasonTransport, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportError(ctx, fmt.Errorf("read response: %w", err))
	}
	if err := c.checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkStatus maps non-2xx HTTP status codes to venue failure reasons.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	err := fmt.Errorf("HTTP %d: %s", statusCode, snippet(body))
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.NewVenueError(c.venue, domain.ReasonAuth, err)
	case http.StatusProxyAuthRequired, http.StatusUnavailableForLegalReasons:
		// 451 is how venues refuse restricted regions; a working proxy fixes it.
		return domain.NewVenueError(c.venue, domain.ReasonProxyBlocked, err)
	case http.StatusTooManyRequests, http.StatusTeapot:
		return domain.NewVenueError(c.venue, domain.ReasonRateLimited, err)
	default:
		return domain.NewVenueError(c.venue, domain.ReasonBadResponse, err)
	}
}

func (c *Client) transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return domain.NewVenueError(c.venue, domain.ReasonRateLimited, err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.NewVenueError(c.venue, domain.ReasonTimeout, err)
	case strings.Contains(err.Error(), "proxyconnect"):
		return domain.NewVenueError(c.venue, domain.ReasonProxyBlocked, err)
	default:
		return domain.NewVenueError(c.venue, domain.ReasonTransport, err)
	}
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

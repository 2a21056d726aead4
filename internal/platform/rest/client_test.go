package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

func TestGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"price":"1.5"}`))
	}))
	defer srv.Close()

	c, err := New(Config{Venue: "binance", BaseURL: srv.URL + "/"}, nil)
	require.NoError(t, err)

	var out struct {
		Price string `json:"price"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "/api/v3/ticker", url.Values{"symbol": {"BTCUSDT"}}, &out))
	assert.Equal(t, "1.5", out.Price)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   domain.VenueFailureReason
	}{
		{http.StatusUnauthorized, domain.ReasonAuth},
		{http.StatusForbidden, domain.ReasonAuth},
		{http.StatusProxyAuthRequired, domain.ReasonProxyBlocked},
		{http.StatusUnavailableForLegalReasons, domain.ReasonProxyBlocked},
		{http.StatusTooManyRequests, domain.ReasonRateLimited},
		{http.StatusTeapot, domain.ReasonRateLimited},
		{http.StatusInternalServerError, domain.ReasonBadResponse},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c, err := New(Config{Venue: "okx", BaseURL: srv.URL}, nil)
			require.NoError(t, err)
			_, err = c.Get(context.Background(), "/", nil)

			var ve *domain.VenueError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.want, ve.Reason)
			assert.Equal(t, "okx", ve.Venue)
			assert.ErrorIs(t, err, domain.ErrVenueUnavailable)
		})
	}
}

func TestDecodeErrorIsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	c, err := New(Config{Venue: "bybit", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	var out map[string]any
	err = c.GetJSON(context.Background(), "/", nil, &out)

	var ve *domain.VenueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.ReasonBadResponse, ve.Reason)
}

func TestDeadlineIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c, err := New(Config{Venue: "binance", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, "/", nil)

	var ve *domain.VenueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.ReasonTimeout, ve.Reason)
}

func TestRequestsGoThroughVenueProxy(t *testing.T) {
	var proxied string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = r.URL.String()
		w.Write([]byte(`{}`))
	}))
	defer proxy.Close()

	c, err := New(Config{Venue: "bybit", BaseURL: "http://api.bybit.invalid", ProxyURL: proxy.URL}, nil)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "/v5/market/tickers", url.Values{"category": {"spot"}})
	require.NoError(t, err)
	assert.Equal(t, "http://api.bybit.invalid/v5/market/tickers?category=spot", proxied)
}

func TestNewRejectsBadProxy(t *testing.T) {
	_, err := New(Config{Venue: "x", ProxyURL: "://bad"}, nil)
	assert.Error(t, err)
}

type denyLimiter struct{ key string }

func (d *denyLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

func (d *denyLimiter) Wait(_ context.Context, key string, _ int, _ time.Duration) error {
	d.key = key
	return domain.ErrRateLimited
}

func TestRateLimiterConsulted(t *testing.T) {
	lim := &denyLimiter{}
	c, err := New(Config{Venue: "okx", BaseURL: "http://unused.invalid", RateLimit: 5}, lim)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "/", nil)

	var ve *domain.VenueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.ReasonRateLimited, ve.Reason)
	assert.Equal(t, "venue:okx", lim.key)
}

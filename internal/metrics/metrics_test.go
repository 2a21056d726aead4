package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadscan/internal/arbitrage"
	"github.com/alanyoungcy/spreadscan/internal/domain"
)

func TestObserveFetch(t *testing.T) {
	m := New()
	m.ObserveFetch(arbitrage.FetchResult{Adapter: "binance:spot", Quotes: make([]domain.Quote, 3), Elapsed: 120 * time.Millisecond})
	m.ObserveFetch(arbitrage.FetchResult{
		Adapter: "okx:spot",
		Err:     domain.NewVenueError("okx:spot", domain.ReasonRateLimited, domain.ErrRateLimited),
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.VenueQuotes.WithLabelValues("binance:spot")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.VenueQuotes.WithLabelValues("okx:spot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VenueFailures.WithLabelValues("okx:spot", "rate_limited")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.FetchDuration))
}

func TestObserveScan(t *testing.T) {
	m := New()
	m.ObserveScan(arbitrage.ScanResult{
		Report:     domain.Report{Spot: make([]domain.SpreadOpportunity, 2), Dex: make([]domain.SpreadOpportunity, 1)},
		Rejected:   4,
		Collisions: 1,
		Duration:   time.Second,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Opportunities.WithLabelValues("spot")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Opportunities.WithLabelValues("futures")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Opportunities.WithLabelValues("dex")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RejectedQuotes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Collisions))
	assert.Positive(t, testutil.ToFloat64(m.LastScan))
}

func TestObserveSink(t *testing.T) {
	m := New()
	m.ObserveSink("s3", time.Millisecond, errors.New("denied"))
	m.ObserveSink("s3", time.Millisecond, nil)
	m.ObserveSink("file", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkWrites.WithLabelValues("s3", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkWrites.WithLabelValues("s3", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkWrites.WithLabelValues("file", "ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ScansTotal.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "spreadscan_scan_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

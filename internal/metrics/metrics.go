// Package metrics exposes scan telemetry as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/spreadscan/internal/arbitrage"
	"github.com/alanyoungcy/spreadscan/internal/domain"
)

const namespace = "spreadscan"

// Metrics holds every collector on its own registry. It implements
// arbitrage.Observer and service.SinkObserver.
type Metrics struct {
	registry *prometheus.Registry

	FetchDuration  *prometheus.HistogramVec
	VenueQuotes    *prometheus.GaugeVec
	VenueFailures  *prometheus.CounterVec
	ScanDuration   prometheus.Histogram
	ScansTotal     prometheus.Counter
	Opportunities  *prometheus.GaugeVec
	RejectedQuotes prometheus.Counter
	Collisions     prometheus.Counter
	LastScan       prometheus.Gauge
	SinkWrites     *prometheus.CounterVec
	SinkDuration   *prometheus.HistogramVec
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of adapter fetch calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"adapter"}),
		VenueQuotes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "quotes",
			Help:      "Quotes returned by the adapter in the last scan.",
		}, []string{"adapter"}),
		VenueFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "failures_total",
			Help:      "Adapter fetch failures by reason.",
		}, []string{"adapter", "reason"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Duration of a full scan.",
			Buckets:   prometheus.DefBuckets,
		}),
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "total",
			Help:      "Completed scans.",
		}),
		Opportunities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "opportunities",
			Help:      "Reported opportunities per category in the last scan.",
		}, []string{"category"}),
		RejectedQuotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "rejected_quotes_total",
			Help:      "Malformed quotes dropped before aggregation.",
		}),
		Collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "normalization_collisions_total",
			Help:      "Distinct raw entities that collapsed into one aggregation slot.",
		}),
		LastScan: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time of the last completed scan.",
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "writes_total",
			Help:      "Snapshot writes by sink and result.",
		}, []string{"sink", "result"}),
		SinkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "write_duration_seconds",
			Help:      "Duration of snapshot writes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FetchDuration,
		m.VenueQuotes,
		m.VenueFailures,
		m.ScanDuration,
		m.ScansTotal,
		m.Opportunities,
		m.RejectedQuotes,
		m.Collisions,
		m.LastScan,
		m.SinkWrites,
		m.SinkDuration,
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records one adapter call.
func (m *Metrics) ObserveFetch(res arbitrage.FetchResult) {
	m.FetchDuration.WithLabelValues(res.Adapter).Observe(res.Elapsed.Seconds())
	m.VenueQuotes.WithLabelValues(res.Adapter).Set(float64(len(res.Quotes)))
	if !res.OK() {
		m.VenueFailures.WithLabelValues(res.Adapter, string(arbitrage.FailureReason(res.Err))).Inc()
	}
}

// ObserveScan records a completed scan.
func (m *Metrics) ObserveScan(res arbitrage.ScanResult) {
	m.ScansTotal.Inc()
	m.ScanDuration.Observe(res.Duration.Seconds())
	m.RejectedQuotes.Add(float64(res.Rejected))
	m.Collisions.Add(float64(res.Collisions))
	for _, cat := range domain.Categories {
		m.Opportunities.WithLabelValues(string(cat)).Set(float64(len(res.Report.Section(cat))))
	}
	m.LastScan.SetToCurrentTime()
}

// ObserveSink records one snapshot write.
func (m *Metrics) ObserveSink(sink string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SinkWrites.WithLabelValues(sink, result).Inc()
	m.SinkDuration.WithLabelValues(sink).Observe(elapsed.Seconds())
}

var _ arbitrage.Observer = (*Metrics)(nil)

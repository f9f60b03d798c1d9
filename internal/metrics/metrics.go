package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics represents the collection of all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry
	// pushRegistry holds only the benchmark metrics sent to a Pushgateway.
	pushRegistry *prometheus.Registry

	// Standard metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Benchmark history metrics
	RunsRecorded      *prometheus.CounterVec
	AlertsRaised      *prometheus.CounterVec
	LatestMeasurement *prometheus.GaugeVec
	DocumentReloads   *prometheus.CounterVec
	DocumentRuns      prometheus.Gauge
}

// NewMetrics creates all metrics and registers them on a fresh registry
// together with the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry(), pushRegistry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.RunsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchkeep_runs_recorded_total",
			Help: "Total number of benchmark runs appended to the history",
		},
		[]string{"suite", "tool"},
	)

	m.AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchkeep_alerts_total",
			Help: "Total number of benchmarks that crossed the alert threshold",
		},
		[]string{"suite"},
	)

	m.LatestMeasurement = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchkeep_latest_measurement",
			Help: "Latest recorded value per benchmark",
		},
		[]string{"suite", "bench", "unit"},
	)

	m.DocumentReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchkeep_document_reloads_total",
			Help: "Number of history reloads triggered by file changes",
		},
		[]string{"result"},
	)

	m.DocumentRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "benchkeep_document_runs",
			Help: "Number of runs in the currently served history",
		},
	)

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RunsRecorded,
		m.AlertsRaised,
		m.LatestMeasurement,
		m.DocumentReloads,
		m.DocumentRuns,
	)
	m.pushRegistry.MustRegister(m.RunsRecorded, m.AlertsRaised, m.LatestMeasurement)

	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware for tracking HTTP requests
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := routeLabel(r.URL.Path)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, http.StatusText(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routeLabel collapses per-suite API paths so label cardinality stays bounded.
func routeLabel(path string) string {
	if !strings.HasPrefix(path, "/api/suites/") {
		return path
	}
	switch {
	case strings.Contains(path, "/benches/"):
		return "/api/suites/{suite}/benches/{bench}"
	case strings.HasSuffix(path, "/stats"):
		return "/api/suites/{suite}/stats"
	default:
		return "/api/suites/{suite}"
	}
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ObserveRun records an appended run and refreshes the latest-value gauges.
func (m *Metrics) ObserveRun(suite, tool string, benches []Sample) {
	m.RunsRecorded.WithLabelValues(suite, tool).Inc()
	for _, b := range benches {
		m.LatestMeasurement.WithLabelValues(suite, b.Name, b.Unit).Set(b.Value)
	}
}

// SetLatest replaces the latest-value gauges with the given suites' samples.
func (m *Metrics) SetLatest(latest map[string][]Sample) {
	m.LatestMeasurement.Reset()
	for suite, samples := range latest {
		for _, b := range samples {
			m.LatestMeasurement.WithLabelValues(suite, b.Name, b.Unit).Set(b.Value)
		}
	}
}

// Sample is one named value for the latest-measurement gauge.
type Sample struct {
	Name  string
	Unit  string
	Value float64
}

// ObserveAlerts adds n alerts for suite.
func (m *Metrics) ObserveAlerts(suite string, n int) {
	if n > 0 {
		m.AlertsRaised.WithLabelValues(suite).Add(float64(n))
	}
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Push sends the benchmark metrics to a Prometheus Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(m.pushRegistry).PushContext(ctx)
}

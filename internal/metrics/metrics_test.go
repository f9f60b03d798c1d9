package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.RunsRecorded)
	assert.NotNil(t, m.AlertsRaised)
	assert.NotNil(t, m.LatestMeasurement)
	assert.NotNil(t, m.Registry())

	// A second instance must not collide with the first.
	assert.NotPanics(t, func() { NewMetrics() })
}

func TestRequestTrackingMiddleware(t *testing.T) {
	m := NewMetrics()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("OK"))
	})
	wrapped := m.RequestTrackingMiddleware(handler)

	for _, path := range []string{"/data.js", "/data.js", "/missing", "/api/suites/Go/benches/BenchmarkA"} {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/data.js", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/missing", "Not Found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/suites/{suite}/benches/{bench}", "OK")))
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/":                        "/",
		"/api/suites":              "/api/suites",
		"/api/suites/Go":           "/api/suites/{suite}",
		"/api/suites/Go/stats":     "/api/suites/{suite}/stats",
		"/api/suites/Go/benches/X": "/api/suites/{suite}/benches/{bench}",
	}
	for in, want := range tests {
		assert.Equal(t, want, routeLabel(in), in)
	}
}

func TestObserveRunAndAlerts(t *testing.T) {
	m := NewMetrics()

	m.ObserveRun("Go Benchmark", "go", []Sample{{Name: "BenchmarkA", Unit: "ns/op", Value: 12.5}})
	m.ObserveRun("Go Benchmark", "go", []Sample{{Name: "BenchmarkA", Unit: "ns/op", Value: 10}})
	m.ObserveAlerts("Go Benchmark", 3)
	m.ObserveAlerts("Go Benchmark", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsRecorded.WithLabelValues("Go Benchmark", "go")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.LatestMeasurement.WithLabelValues("Go Benchmark", "BenchmarkA", "ns/op")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AlertsRaised.WithLabelValues("Go Benchmark")))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveAlerts("cargo", 1)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `benchkeep_alerts_total{suite="cargo"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSetLatest(t *testing.T) {
	m := NewMetrics()
	m.ObserveRun("old", "go", []Sample{{Name: "BenchmarkGone", Unit: "ns/op", Value: 1}})

	m.SetLatest(map[string][]Sample{
		"Go Benchmark": {{Name: "BenchmarkEncode", Unit: "ns/op", Value: 120}},
	})

	assert.Equal(t, 1, testutil.CollectAndCount(m.LatestMeasurement))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.LatestMeasurement.WithLabelValues("Go Benchmark", "BenchmarkEncode", "ns/op")))
}

func TestPush(t *testing.T) {
	var method, path string
	var size int
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ := io.ReadAll(r.Body)
		size = len(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	m := NewMetrics()
	m.ObserveRun("Go Benchmark", "go", []Sample{{Name: "BenchmarkEncode", Unit: "ns/op", Value: 100}})

	require.NoError(t, m.Push(context.Background(), gateway.URL, "benchkeep"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/benchkeep", path)
	assert.Positive(t, size)
}

func TestPush_GatewayError(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer gateway.Close()

	m := NewMetrics()
	m.ObserveRun("s", "go", nil)
	assert.Error(t, m.Push(context.Background(), gateway.URL, "benchkeep"))
}

package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.Billing().ObserveTransition("issue")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `worklog_invoice_transitions_total{action="issue"} 1`)
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := metricsRR.Body.String()
	require.True(t, strings.Contains(body, `worklog_http_requests_total{code="418",route="/test"} 1`), body)
	require.Contains(t, body, `worklog_http_request_duration_seconds_bucket{route="/test"`)
}

func TestBillingMetricsNilSafe(t *testing.T) {
	var m *BillingMetrics
	require.NotPanics(t, func() {
		m.ObserveTransition("create")
		m.ObserveRetry("issue")
		m.ObserveExhausted("issue")
	})
	var metrics *Metrics
	require.Nil(t, metrics.Billing())
}

func TestBillingMetricsCountRetries(t *testing.T) {
	m := NewBillingMetrics(prometheus.NewRegistry())
	m.ObserveRetry("issue")
	m.ObserveRetry("issue")
	m.ObserveExhausted("issue")

	require.Equal(t, 2.0, testutil.ToFloat64(m.retries.WithLabelValues("issue")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.exhausted.WithLabelValues("issue")))
}

func TestMetricsHandlerIncludesRuntimeCollectors(t *testing.T) {
	rr := httptest.NewRecorder()
	NewMetrics().Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestMetricsMiddlewareTracksInFlight(t *testing.T) {
	metrics := NewMetrics()
	var during float64
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.http.inFlight)
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/untracked", nil))

	require.Equal(t, 1.0, during)
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.http.inFlight))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.http.requests.WithLabelValues("unknown", "200")))
}

func TestStatusWriterKeepsFirstStatus(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	require.Equal(t, http.StatusOK, sw.Status())

	sw.WriteHeader(http.StatusCreated)
	sw.WriteHeader(http.StatusInternalServerError)
	require.Equal(t, http.StatusCreated, sw.Status())
}

func TestNilMetricsServesUnavailable(t *testing.T) {
	var metrics *Metrics
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

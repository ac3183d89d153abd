package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace adalah prefix seluruh metrik layanan worklog.
const namespace = "worklog"

// unmatchedRoute dipakai sebagai label route bila chi tidak menemukan pola.
const unmatchedRoute = "unknown"

// Metrics memegang registry layanan beserta instrumen HTTP dan billing.
// Receiver nil tetap aman: middleware menjadi no-op dan /metrics menjawab 503.
type Metrics struct {
	registry *prometheus.Registry
	http     httpInstruments
	billing  *BillingMetrics
}

type httpInstruments struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics membangun registry terisolasi berisi collector runtime Go,
// collector proses, metrik HTTP per route dan metrik billing.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry: registry,
		http:     newHTTPInstruments(registry),
		billing:  NewBillingMetrics(registry),
	}
}

func newHTTPInstruments(registerer prometheus.Registerer) httpInstruments {
	in := httpInstruments{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Jumlah permintaan HTTP per pola route dan kode status.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latensi permintaan HTTP per pola route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Permintaan HTTP yang sedang diproses.",
		}),
	}
	registerer.MustRegister(in.requests, in.duration, in.inFlight)
	return in
}

// Handler menyajikan isi registry dalam format eksposisi Prometheus.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Billing mengembalikan instrumen billing milik registry ini.
func (m *Metrics) Billing() *BillingMetrics {
	if m == nil {
		return nil
	}
	return m.billing
}

// Middleware mencatat jumlah, latensi dan permintaan aktif per route. Label
// route diambil setelah handler berjalan karena chi baru mengisi polanya saat
// routing selesai.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.http.inFlight.Inc()
		defer m.http.inFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		route := routePattern(r)
		m.http.requests.WithLabelValues(route, strconv.Itoa(sw.Status())).Inc()
		m.http.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// statusWriter menyimpan kode status pertama yang ditulis handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap memberi http.ResponseController akses ke writer asli.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Status mengembalikan kode yang terkirim, 200 bila handler tidak menulis apa pun.
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

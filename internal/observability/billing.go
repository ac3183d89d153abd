package observability

import "github.com/prometheus/client_golang/prometheus"

// BillingMetrics mencatat transisi invoice dan konflik transaksi. Semua
// method aman dipanggil pada receiver nil.
type BillingMetrics struct {
	transitions *prometheus.CounterVec
	retries     *prometheus.CounterVec
	exhausted   *prometheus.CounterVec
}

// NewBillingMetrics mendaftarkan metrik billing pada registerer.
func NewBillingMetrics(registerer prometheus.Registerer) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invoice",
		Name:      "transitions_total",
		Help:      "Jumlah mutasi invoice yang berhasil per aksi.",
	}, []string{"action"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invoice",
		Name:      "tx_retries_total",
		Help:      "Jumlah transaksi invoice yang diulang karena konflik.",
	}, []string{"op"})
	exhausted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invoice",
		Name:      "tx_retries_exhausted_total",
		Help:      "Jumlah operasi invoice yang gagal setelah batas percobaan.",
	}, []string{"op"})
	registerer.MustRegister(transitions, retries, exhausted)
	return &BillingMetrics{transitions: transitions, retries: retries, exhausted: exhausted}
}

// ObserveTransition menambah hitungan mutasi yang berhasil.
func (m *BillingMetrics) ObserveTransition(action string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action).Inc()
}

// ObserveRetry menambah hitungan transaksi yang diulang.
func (m *BillingMetrics) ObserveRetry(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

// ObserveExhausted menambah hitungan operasi yang kehabisan percobaan.
func (m *BillingMetrics) ObserveExhausted(op string) {
	if m == nil {
		return
	}
	m.exhausted.WithLabelValues(op).Inc()
}

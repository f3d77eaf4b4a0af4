// Package metrics exposes Prometheus counters for the credit ledger, the
// purchase log, the rate limiter and the upstream generator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "araba_danismani"

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	debits      *prometheus.CounterVec
	refunds     *prometheus.CounterVec
	purchases   *prometheus.CounterVec
	rateLimited prometheus.Counter
	generation  *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		debits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_debits_total",
			Help:      "Credit debits by result (ok, limit_exceeded, error).",
		}, []string{"result"}),
		refunds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_refunds_total",
			Help:      "Single-credit refunds by reason and result.",
		}, []string{"reason", "result"}),
		purchases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Purchase receipts by outcome (credited, duplicate, unknown_product, error).",
		}, []string{"outcome"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-address rate window.",
		}),
		generation: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of upstream generation calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"provider", "outcome"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Debit(result string) {
	if m == nil {
		return
	}
	m.debits.WithLabelValues(result).Inc()
}

func (m *Metrics) Refund(reason, result string) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(reason, result).Inc()
}

func (m *Metrics) Purchase(outcome string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) Generation(provider, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.generation.WithLabelValues(provider, outcome).Observe(took.Seconds())
}

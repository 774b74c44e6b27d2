// Package metrics defines the Prometheus collectors exported by Finova.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finova"

// Metrics holds every collector.
type Metrics struct {
	rpcRequests   *prometheus.CounterVec
	rpcDuration   *prometheus.HistogramVec
	storeRetries  *prometheus.CounterVec
	storeHealthy  prometheus.Gauge
	invalidations *prometheus.CounterVec
	guardDenials  *prometheus.CounterVec
	emails        *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rpcRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPCs handled, by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		storeRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Store operations retried after a transient error.",
		}, []string{"operation"}),
		storeHealthy: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_healthy",
			Help:      "1 if the last store health check succeeded.",
		}),
		invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_invalidations_total",
			Help:      "Cached view invalidations requested, by path.",
		}, []string{"path"}),
		guardDenials: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_denials_total",
			Help:      "Requests denied by the protection guard, by reason.",
		}, []string{"reason"}),
		emails: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Report emails rendered, by type and outcome.",
		}, []string{"type", "outcome"}),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) RPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(d.Seconds())
}

func (m *Metrics) StoreRetry(operation string) {
	if m == nil {
		return
	}
	m.storeRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) StoreHealthy(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.storeHealthy.Set(1)
	} else {
		m.storeHealthy.Set(0)
	}
}

func (m *Metrics) Invalidation(path string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(path).Inc()
}

func (m *Metrics) GuardDenial(reason string) {
	if m == nil {
		return
	}
	m.guardDenials.WithLabelValues(reason).Inc()
}

func (m *Metrics) Email(emailType, outcome string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(emailType, outcome).Inc()
}

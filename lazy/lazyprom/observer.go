// Package lazyprom exports lazy proxy lifecycle metrics to Prometheus.
package lazyprom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sghaida/lazyproxy/lazy"
)

const namespace = "lazyproxy"

// Observer implements lazy.Observer with Prometheus collectors.
type Observer struct {
	constructions *prometheus.CounterVec
	failures      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	forwarded     *prometheus.CounterVec
}

var _ lazy.Observer = (*Observer)(nil)

// NewObserver registers the proxy collectors on reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewObserver(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Observer{
		constructions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "constructions_total",
			Help:      "Lazy instances constructed.",
		}, []string{"proxy"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "construction_failures_total",
			Help:      "Failed lazy construction attempts.",
		}, []string{"proxy"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "construction_seconds",
			Help:      "Time spent in lazy instance factories.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"proxy"}),
		forwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forwarded_calls_total",
			Help:      "Calls forwarded to lazy instances.",
		}, []string{"proxy", "method"}),
	}
}

// Constructed implements lazy.Observer.
func (o *Observer) Constructed(proxy string, took time.Duration) {
	o.constructions.WithLabelValues(proxy).Inc()
	o.latency.WithLabelValues(proxy).Observe(took.Seconds())
}

// ConstructFailed implements lazy.Observer.
func (o *Observer) ConstructFailed(proxy string, _ error) {
	o.failures.WithLabelValues(proxy).Inc()
}

// Forwarded implements lazy.Observer.
func (o *Observer) Forwarded(proxy, method string) {
	o.forwarded.WithLabelValues(proxy, method).Inc()
}

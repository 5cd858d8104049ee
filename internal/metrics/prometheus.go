// Package metrics exports the router's counters and timings to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "order_router"

// Prometheus implements router.Metrics. Event names become the "event" label.
type Prometheus struct {
	events    *prometheus.CounterVec
	durations *prometheus.HistogramVec
	gatherer  prometheus.Gatherer
}

// NewPrometheus registers the collectors on reg. A nil reg gets a private registry.
func NewPrometheus(reg *prometheus.Registry, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	factory := promauto.With(reg)
	return &Prometheus{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "events_total",
			Help:      "Router counters by event name",
		}, []string{"event"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "duration_seconds",
			Help:      "Router latencies by event name",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"event"}),
		gatherer: reg,
	}
}

func (p *Prometheus) Count(name string, value float64) {
	if value < 0 {
		return
	}
	p.events.WithLabelValues(name).Add(value)
}

func (p *Prometheus) Duration(name string, d time.Duration) {
	p.durations.WithLabelValues(name).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Package metrics exposes Prometheus counters for router command dispatch.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netorch"

// Collector holds the dispatch metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	dispatch    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	remediation *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Per-router outcomes of rule applications.",
		}, []string{"topology", "intent", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent sending one command batch to a router.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topology"}),
		remediation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remediation_total",
			Help:      "Redundant-router remediations by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(c.dispatch, c.duration, c.remediation)
	return c
}

// ObserveDispatch counts one per-router outcome.
func (c *Collector) ObserveDispatch(topology, intent, outcome string) {
	if c == nil {
		return
	}
	c.dispatch.WithLabelValues(topology, intent, outcome).Inc()
}

// ObserveDuration records how long a batch took to be answered.
func (c *Collector) ObserveDuration(topology string, d time.Duration) {
	if c == nil {
		return
	}
	c.duration.WithLabelValues(topology).Observe(d.Seconds())
}

// ObserveRemediation counts one remediation attempt.
func (c *Collector) ObserveRemediation(result string) {
	if c == nil {
		return
	}
	c.remediation.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

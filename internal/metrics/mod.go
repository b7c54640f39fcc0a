// Package metrics exports the reputations of a simulation to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/incidents/peer"
)

const namespace = "incidents"

// Collector holds the metrics of a simulation in its own registry.
type Collector struct {
	registry *prometheus.Registry

	reputation *prometheus.GaugeVec
	changes    *prometheus.CounterVec
}

// NewCollector returns a collector with its metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		reputation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_reputation",
			Help:      "Current reputation of a node.",
		}, []string{"node", "kind"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reputation_changes_total",
			Help:      "Number of reputation changes per behaviour and direction.",
		}, []string{"kind", "direction"}),
	}

	c.registry.MustRegister(c.reputation, c.changes)

	return c
}

// ObserveReputation records a change of the reputation of a node.
func (c *Collector) ObserveReputation(profile peer.Profile, before, after peer.ReputationState) {
	c.reputation.WithLabelValues(strconv.Itoa(profile.ID), profile.Kind()).Set(after.Reputation)

	switch {
	case after.Valid > before.Valid:
		c.changes.WithLabelValues(profile.Kind(), "increase").Inc()
	case after.Invalid > before.Invalid:
		c.changes.WithLabelValues(profile.Kind(), "decrease").Inc()
	}
}

// WatchGenerated exports the number of generated incidents given by f.
func (c *Collector) WatchGenerated(f func() uint) {
	c.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "incidents_generated_total",
		Help:      "Number of incidents generated.",
	}, func() float64 {
		return float64(f())
	}))
}

// Registry returns the registry of the metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

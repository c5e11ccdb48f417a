// Package metrics exports explorer engine activity to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bnema/grove/pkg/explorer"
)

const namespace = "grove"

// Collector holds the explorer metrics registered on one registry.
type Collector struct {
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	reconciled   *prometheus.CounterVec
	toggles      *prometheus.CounterVec
	disposed     prometheus.Counter
}

// NewCollector registers the explorer metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Completed child loads by mode and result",
		}, []string{"mode", "result"}),
		loadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time from load start to delivery on the controller queue",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"mode"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loads_in_flight",
			Help:      "Loads started and not yet delivered",
		}),
		reconciled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_children_total",
			Help:      "Children handled by reconciliation by outcome",
		}, []string{"outcome"}),
		toggles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_toggles_total",
			Help:      "Expand and collapse operations",
		}, []string{"action"}),
		disposed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_disposed_total",
			Help:      "Domain nodes disposed",
		}),
	}
}

// Hooks feeds the collector from engine lifecycle events.
func (c *Collector) Hooks() explorer.Hooks {
	return explorer.Hooks{
		OnLoadStart: func(explorer.Node, explorer.Mode) {
			c.inFlight.Inc()
		},
		OnLoadFinish: func(_ explorer.Node, mode explorer.Mode, elapsed time.Duration, err error) {
			c.inFlight.Dec()
			result := "ok"
			switch {
			case errors.Is(err, explorer.ErrDisposed):
				result = "discarded"
			case err != nil:
				result = "error"
			}
			c.loads.WithLabelValues(mode.String(), result).Inc()
			c.loadDuration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
		},
		OnReconciled: func(_ explorer.Node, stats explorer.ReconcileStats) {
			c.reconciled.WithLabelValues("kept").Add(float64(stats.Kept))
			c.reconciled.WithLabelValues("created").Add(float64(stats.Created))
			c.reconciled.WithLabelValues("removed").Add(float64(stats.Removed))
			c.reconciled.WithLabelValues("collision").Add(float64(stats.Collisions))
		},
		OnExpanded: func(explorer.Node) {
			c.toggles.WithLabelValues("expand").Inc()
		},
		OnCollapsed: func(explorer.Node) {
			c.toggles.WithLabelValues("collapse").Inc()
		},
		OnDisposed: func(n explorer.Node) {
			if n != nil && n.Placeholder() {
				return
			}
			c.disposed.Inc()
		},
	}
}

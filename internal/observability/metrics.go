// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/songzhibin97/tokensim/internal/engine"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Simulation metrics
	SimulationsTotal   *prometheus.CounterVec
	SimulationDuration prometheus.Histogram
	IntervalsProcessed prometheus.Counter
	TradesTotal        *prometheus.CounterVec

	// Collector metrics
	FeeCollections *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokensim"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		SimulationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "simulations_total",
			Help:      "Total number of simulation runs by final status",
		}, []string{"status"}),
		SimulationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "simulation_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		IntervalsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "intervals_processed_total",
			Help:      "Total number of simulation intervals processed",
		}),
		TradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_total",
			Help:      "Total number of simulated trades by result",
		}, []string{"result"}),

		FeeCollections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "fee_collections_total",
			Help:      "Total number of transaction fee lookups by status",
		}, []string{"status"}),
	}
}

// ObserveSimulation records one finished or aborted run.
func (m *Metrics) ObserveSimulation(sim *engine.Simulation, elapsed time.Duration, runErr error) {
	status := string(sim.Status)
	if runErr != nil {
		status = "failed"
	}
	m.SimulationsTotal.WithLabelValues(status).Inc()
	m.SimulationDuration.Observe(elapsed.Seconds())
	m.IntervalsProcessed.Add(float64(len(sim.IntervalReports)))

	var successful, failed uint64
	for _, r := range sim.IntervalReports {
		successful += r.SuccessfulTrades
		failed += r.FailedTrades
	}
	m.TradesTotal.WithLabelValues("successful").Add(float64(successful))
	m.TradesTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveFeeCollection records the outcome of a fee lookup.
func (m *Metrics) ObserveFeeCollection(err error) {
	if err != nil {
		m.FeeCollections.WithLabelValues("error").Inc()
		return
	}
	m.FeeCollections.WithLabelValues("ok").Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package metrics exposes Prometheus instrumentation for the HTTP surface.
// The solvers themselves stay free of shared state; callers record outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ivsolver"

// SolverMetrics records implied-volatility solve outcomes on its own registry.
type SolverMetrics struct {
	registry *prometheus.Registry

	solves     *prometheus.CounterVec
	failures   *prometheus.CounterVec
	iterations *prometheus.HistogramVec
	latency    *prometheus.HistogramVec
	pricings   prometheus.Counter
}

// New creates a SolverMetrics with process and Go runtime collectors attached.
func New() *SolverMetrics {
	registry := prometheus.NewRegistry()

	m := &SolverMetrics{
		registry: registry,

		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Implied volatility solves by method and outcome status",
		}, []string{"method", "status"}),

		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solve_errors_total",
			Help:      "Implied volatility solves rejected with an error",
		}, []string{"method"}),

		iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_iterations",
			Help:      "Pricing evaluations spent per solve",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 50, 100, 1000, 5000},
		}, []string{"method"}),

		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time per solve",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"method"}),

		pricings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricings_total",
			Help:      "Direct Black-Scholes pricing requests",
		}),
	}

	registry.MustRegister(
		m.solves,
		m.failures,
		m.iterations,
		m.latency,
		m.pricings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSolve records a finished solve.
func (m *SolverMetrics) ObserveSolve(method, status string, iterations int, elapsed time.Duration) {
	m.solves.WithLabelValues(method, status).Inc()
	m.iterations.WithLabelValues(method).Observe(float64(iterations))
	m.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveError records a solve that returned an error.
func (m *SolverMetrics) ObserveError(method string) {
	m.failures.WithLabelValues(method).Inc()
}

// ObservePricing records a direct pricing request.
func (m *SolverMetrics) ObservePricing() {
	m.pricings.Inc()
}

// Registry returns the underlying registry, mainly for tests.
func (m *SolverMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *SolverMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package metrics exposes Prometheus counters and gauges for executions and
// the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cmdbridge"

// Registry holds every collector in this package. It is separate from the
// default registry so tests can gather it without global side effects.
var Registry = prometheus.NewRegistry()

var (
	executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exec",
			Name:      "total",
			Help:      "Executions by outcome.",
		},
		[]string{"outcome"},
	)
	executionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "exec",
			Name:      "duration_seconds",
			Help:      "Wall time of executions that started a process.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)
	truncations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exec",
			Name:      "truncations_total",
			Help:      "Captured streams that hit the output cap.",
		},
		[]string{"stream"},
	)
	inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "exec",
		Name:      "in_flight",
		Help:      "Executions currently holding an admission slot.",
	})
	capacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "exec",
		Name:      "capacity",
		Help:      "Configured admission capacity.",
	})
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	Registry.MustRegister(
		executions, executionDuration, truncations, inFlight, capacity,
		httpRequests, httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordExecution counts one finished execution. Duration is only observed
// when a process actually ran (d > 0).
func RecordExecution(outcome string, d time.Duration) {
	executions.WithLabelValues(outcome).Inc()
	if d > 0 {
		executionDuration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// RecordTruncation counts a stream that hit its cap.
func RecordTruncation(stream string) {
	truncations.WithLabelValues(stream).Inc()
}

// SetCapacity records the configured admission capacity.
func SetCapacity(n int) {
	capacity.Set(float64(n))
}

// SetInFlight records the number of admitted executions.
func SetInFlight(n int64) {
	inFlight.Set(float64(n))
}

// RecordHTTPRequest counts one served HTTP request.
func RecordHTTPRequest(method, path string, status int, d time.Duration) {
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(d.Seconds())
}

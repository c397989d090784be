package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Engine metrics
	EngineOperationsTotal      prometheus.CounterVec
	NotificationsEmittedTotal  prometheus.CounterVec
	WorkflowTransitionDuration prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			EngineOperationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "engine_operations_total",
					Help: "Engine operations by name and outcome",
				},
				[]string{"operation", "outcome"},
			),
			NotificationsEmittedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_emitted_total",
					Help: "Notification events recorded, by type",
				},
				[]string{"type"},
			),
			WorkflowTransitionDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "workflow_transition_duration_seconds",
					Help:    "Time spent in workflow create/decide transitions",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
				},
				[]string{"operation"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing on first use
func Get() *Metrics {
	return Initialize()
}

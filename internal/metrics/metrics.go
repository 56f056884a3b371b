// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pocketbook"

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling HTTP requests by route pattern.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"route", "method", "status"},
	)

	expenseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "expenses",
			Name:      "operations_total",
			Help:      "Successful expense mutations by operation.",
		},
		[]string{"operation"},
	)

	registrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounts",
			Name:      "registrations_total",
			Help:      "Accounts created through registration.",
		},
	)
)

// ExpenseOperation counts a successful expense create, update or delete.
func ExpenseOperation(op string) {
	expenseOperations.WithLabelValues(op).Inc()
}

// Registration counts a created account.
func Registration() {
	registrations.Inc()
}

// ObserveRequest records the duration of one handled request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	requestDuration.
		WithLabelValues(route, method, strconv.Itoa(status)).
		Observe(elapsed.Seconds())
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// WriteHeader records code before delegating.
func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

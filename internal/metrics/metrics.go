// Package metrics defines the Prometheus metrics of the FlowTask client and
// its development backend. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default registry on import (promauto). The CLI
// can dump them to a node-exporter textfile with WriteTextfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "flowtask"

// ── API gateway ───────────────────────────────────────────────────────────────

// APIRequestsTotal counts backend calls issued by the gateway.
// Labels:
//   - endpoint: logical operation (e.g. "list_tasks", "login")
//   - code: HTTP status class ("2xx", "4xx", "5xx") or "transport_error"
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "api_requests_total",
		Help:      "Total number of backend requests, by endpoint and outcome.",
	},
	[]string{"endpoint", "code"},
)

// APIRequestDuration measures backend round trips.
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "api_request_duration_seconds",
		Help:      "Duration of backend requests issued by the gateway.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)

// UnauthorizedTotal counts 401 responses that triggered a global sign-out.
var UnauthorizedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "unauthorized_total",
		Help:      "Total number of authorization failures that cleared the session.",
	},
)

// ── Session ───────────────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state changes.
// Labels:
//   - to: "anonymous" or "authenticated"
//   - reason: "initialize", "login", "logout", "invalidate"
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Total number of session state transitions.",
	},
	[]string{"to", "reason"},
)

// ── Task cache ────────────────────────────────────────────────────────────────

// CacheFetchesTotal counts read-through cache fetches.
// Labels:
//   - key: query identity ("tasks", "users")
//   - result: "applied", "stale" (dropped by the generation check) or "error"
var CacheFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "fetches_total",
		Help:      "Total number of cache fetches, by query key and result.",
	},
	[]string{"key", "result"},
)

// CacheInvalidationsTotal counts invalidations after successful mutations.
var CacheInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "invalidations_total",
		Help:      "Total number of cache invalidations, by the mutation that caused them.",
	},
	[]string{"mutation"},
)

// ── Development backend ───────────────────────────────────────────────────────

// DevTasksTotal tracks the number of tasks held by the development backend.
var DevTasksTotal = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "devserver",
		Name:      "tasks",
		Help:      "Current number of tasks stored by the development backend.",
	},
)

// StatusClass folds an HTTP status code into its label value.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// WriteTextfile writes every registered metric to path in the text
// exposition format (node-exporter textfile collector).
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

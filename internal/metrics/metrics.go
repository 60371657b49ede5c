// Package metrics provides Prometheus metrics for the clone service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dclone_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dclone_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Task metrics
	tasksStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dclone_tasks_started_total",
			Help: "Total clone tasks accepted",
		},
	)

	tasksFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dclone_tasks_finished_total",
			Help: "Total clone tasks that reached a terminal state",
		},
		[]string{"status"},
	)

	tasksRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dclone_tasks_rejected_total",
			Help: "Total clone tasks rejected because the queue was full",
		},
	)

	tasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dclone_tasks_active",
			Help: "Number of clone tasks currently running",
		},
	)

	taskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dclone_task_duration_seconds",
			Help:    "Clone task duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	nodesCopiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dclone_nodes_copied_total",
			Help: "Total remote items copied",
		},
		[]string{"kind"},
	)

	// Remote store metrics
	remoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dclone_remote_call_duration_seconds",
			Help:    "Remote store call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	remoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dclone_remote_calls_total",
			Help: "Total remote store calls",
		},
		[]string{"operation", "result"},
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dclone_auth_attempts_total",
			Help: "Total OAuth callback attempts",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTaskStarted counts an accepted task and marks it active.
func RecordTaskStarted() {
	tasksStartedTotal.Inc()
	tasksActive.Inc()
}

// RecordTaskFinished records the terminal status and duration of a task.
func RecordTaskFinished(status string, duration time.Duration) {
	tasksActive.Dec()
	tasksFinishedTotal.WithLabelValues(status).Inc()
	taskDuration.Observe(duration.Seconds())
}

// RecordTaskRejected counts a task refused by a full queue.
func RecordTaskRejected() {
	tasksRejectedTotal.Inc()
}

// RecordNodeCopied counts one copied file or created folder.
func RecordNodeCopied(kind string) {
	nodesCopiedTotal.WithLabelValues(kind).Inc()
}

// RecordRemoteCall records a remote store call and its classified result.
func RecordRemoteCall(operation, result string, duration time.Duration) {
	remoteCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
	remoteCallsTotal.WithLabelValues(operation, result).Inc()
}

// RecordAuthAttempt records an OAuth callback outcome.
func RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authAttemptsTotal.WithLabelValues(result).Inc()
}

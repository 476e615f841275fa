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
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qamanage_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qamanage_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Test Execution Metrics
	TestExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qamanage_test_executions_total",
			Help: "Total number of test executions",
		},
		[]string{"project_id", "status"},
	)

	TestExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qamanage_test_execution_duration_seconds",
			Help:    "Test execution duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"project_id"},
	)

	TestExecutionsInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qamanage_test_executions_in_progress",
			Help: "Number of test executions currently in progress",
		},
		[]string{"project_id"},
	)

	ScenariosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qamanage_scenarios_total",
			Help: "Total number of scenarios run",
		},
		[]string{"project_id", "outcome"},
	)

	// Template Metrics
	TemplateRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qamanage_template_renders_total",
			Help: "Total number of template renders",
		},
		[]string{"kind", "status"},
	)

	// WebSocket Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qamanage_websocket_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	// Queue Metrics
	QueueTasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qamanage_queue_tasks_processed_total",
			Help: "Total number of tasks processed",
		},
		[]string{"task_type", "status"},
	)
)

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware records HTTP metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := r.URL.Path

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordTestExecution records execution outcome metrics
func RecordTestExecution(projectID, status string, durationSeconds float64) {
	TestExecutionsTotal.WithLabelValues(projectID, status).Inc()
	if durationSeconds > 0 {
		TestExecutionDuration.WithLabelValues(projectID).Observe(durationSeconds)
	}
}

// RecordScenarios records scenario counts for a finished execution
func RecordScenarios(projectID string, passed, failed, skipped int) {
	ScenariosTotal.WithLabelValues(projectID, "passed").Add(float64(passed))
	ScenariosTotal.WithLabelValues(projectID, "failed").Add(float64(failed))
	ScenariosTotal.WithLabelValues(projectID, "skipped").Add(float64(skipped))
}

// RecordTemplateRender records a template render attempt
func RecordTemplateRender(kind, status string) {
	TemplateRendersTotal.WithLabelValues(kind, status).Inc()
}

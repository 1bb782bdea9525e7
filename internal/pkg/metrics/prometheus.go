package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "emsdispatch"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Alert lifecycle metrics
	alertsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "submitted_total",
			Help:      "Total number of alerts submitted",
		},
		[]string{"incident_type", "reporter"},
	)

	alertTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "transitions_total",
			Help:      "Total number of applied status transitions",
		},
		[]string{"status"},
	)

	alertsArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "archived_total",
			Help:      "Total number of alerts moved to the archive",
		},
	)

	archiveRemnants = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "archive_remnants_removed_total",
			Help:      "Live records removed because an archived copy already existed",
		},
	)

	// Realtime metrics
	realtimeSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "sessions",
			Help:      "Number of connected realtime sessions",
		},
		[]string{"transport"},
	)

	realtimeDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "dropped_events_total",
			Help:      "Events dropped because a subscriber buffer was full",
		},
		[]string{"event"},
	)

	presenceEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "entries",
			Help:      "Number of tracked responder connections",
		},
	)

	// Push notification metrics
	pushSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "sends_total",
			Help:      "Push multicast attempts by outcome",
		},
		[]string{"outcome"},
	)

	pushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "send_duration_seconds",
			Help:      "Push gateway call duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Flush lets server-sent event streams pass through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets websocket upgrades pass through the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAlertSubmitted counts a persisted submission.
func RecordAlertSubmitted(incidentType string, anonymous bool) {
	reporter := "registered"
	if anonymous {
		reporter = "anonymous"
	}
	alertsSubmitted.WithLabelValues(incidentType, reporter).Inc()
}

// RecordTransition counts an applied status change.
func RecordTransition(status string) {
	alertTransitions.WithLabelValues(status).Inc()
}

// RecordArchived counts a completed archive move.
func RecordArchived() {
	alertsArchived.Inc()
}

// RecordArchiveRemnantsRemoved counts live leftovers cleaned up after a partial move.
func RecordArchiveRemnantsRemoved(n int) {
	archiveRemnants.Add(float64(n))
}

// SessionOpened increments the session gauge for a transport.
func SessionOpened(transport string) {
	realtimeSessions.WithLabelValues(transport).Inc()
}

// SessionClosed decrements the session gauge for a transport.
func SessionClosed(transport string) {
	realtimeSessions.WithLabelValues(transport).Dec()
}

// RecordDroppedEvent counts an event skipped for one slow subscriber.
func RecordDroppedEvent(eventType string) {
	realtimeDropped.WithLabelValues(eventType).Inc()
}

// SetPresenceEntries sets the tracked responder connection gauge.
func SetPresenceEntries(n int) {
	presenceEntries.Set(float64(n))
}

// RecordPushSend records a push gateway call.
func RecordPushSend(outcome string, duration time.Duration) {
	pushSends.WithLabelValues(outcome).Inc()
	pushDuration.Observe(duration.Seconds())
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// Package metrics provides Prometheus instrumentation for the game engine.
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
	// ActionsTotal counts resolved actions, partitioned by action kind.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optwhisper_actions_total",
		Help: "Total number of game actions resolved",
	}, []string{"kind"})

	// ActiveSessions tracks the number of live sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "optwhisper_active_sessions",
		Help: "Number of currently live game sessions",
	})

	// TradesOpened counts trades committed to the trade history, by side.
	TradesOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optwhisper_trades_opened_total",
		Help: "Total trades opened",
	}, []string{"type"})

	// TradesClosed counts trades closed, partitioned by outcome.
	TradesClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optwhisper_trades_closed_total",
		Help: "Total trades closed",
	}, []string{"outcome"})

	// SessionsSwept counts idle sessions removed by the cleanup job.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optwhisper_sessions_swept_total",
		Help: "Idle sessions removed by the cleanup sweeper",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "optwhisper_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optwhisper_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optwhisper_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveWebSockets is the gauge of currently connected WebSocket clients.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "diorama_active_websockets",
		Help: "Number of currently active WebSocket connections",
	})

	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diorama_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diorama_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ReactionWrites counts reaction mutations by outcome.
	ReactionWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diorama_reaction_writes_total",
		Help: "Total number of reaction writes by outcome",
	}, []string{"outcome"})

	// NotificationFailures counts notification deliveries that were dropped.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diorama_notification_failures_total",
		Help: "Total number of notification creations that failed and were swallowed",
	})
)

// InitMetrics creates the Prometheus middleware for HTTP request metrics.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the Fiber handler that records per-request metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}

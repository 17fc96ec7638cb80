package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapexplorer",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapexplorer",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapexplorer",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Explorer metrics
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapexplorer",
		Subsystem: "explore",
		Name:      "queries_total",
		Help:      "Total queries run against the model, by outcome",
	}, []string{"mode", "outcome"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapexplorer",
		Subsystem: "explore",
		Name:      "query_duration_seconds",
		Help:      "Time from query start to finalized view",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	}, []string{"mode"})

	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapexplorer",
		Subsystem: "explore",
		Name:      "events_ingested_total",
		Help:      "Total structured events applied to sessions",
	}, []string{"kind"})

	MalformedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapexplorer",
		Subsystem: "explore",
		Name:      "malformed_events_total",
		Help:      "Total structured events skipped by validation",
	}, []string{"function"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapexplorer",
		Subsystem: "session",
		Name:      "active",
		Help:      "Current number of live sessions",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapexplorer",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapexplorer",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapexplorer",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// Route patterns keep session ids out of the label set.
		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		// Reading a streamed body would drain it here.
		if !c.Response().IsBodyStream() {
			httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))
		}

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

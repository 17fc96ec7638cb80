package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapexplorer/internal/pkg/metrics"
)

// interactionTimeout bounds the selection and mode endpoints, which never
// wait on a provider.
const interactionTimeout = 5 * time.Second

// SetupRoutes registers all REST, SSE, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip); event streams must reach the client unbuffered
	app.Use(compress.New(compress.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/stream")
		},
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Request-scoped logger (request and session IDs)
	app.Use(RequestLoggerMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/sessions", CreateSessionHandler(deps))
	v1.Get("/sessions/:id", GetSessionHandler(deps))
	v1.Delete("/sessions/:id", DeleteSessionHandler(deps))
	v1.Post("/sessions/:id/reset", ResetSessionHandler(deps))

	// Queries carry their own deadline (deps.QueryTimeout); the stream outlives the handler.
	v1.Post("/sessions/:id/query", QueryHandler(deps))
	v1.Get("/sessions/:id/stream", StreamHandler(deps))

	v1.Put("/sessions/:id/mode", timeout.NewWithContext(SetModeHandler(deps), interactionTimeout))
	v1.Post("/sessions/:id/select", timeout.NewWithContext(SelectHandler(deps), interactionTimeout))
	v1.Post("/sessions/:id/navigate", timeout.NewWithContext(NavigateHandler(deps), interactionTimeout))
	v1.Put("/sessions/:id/timeline", timeout.NewWithContext(TimelineHandler(deps), interactionTimeout))
	v1.Get("/sessions/:id/export", timeout.NewWithContext(ExportHandler(deps), interactionTimeout))
	v1.Get("/sessions/:id/snapshot", timeout.NewWithContext(SnapshotHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}

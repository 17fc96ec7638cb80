package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapexplorer/internal/pkg/logging"
)

var quietRoutes = map[string]bool{
	"/v1/health": true,
	"/v1/ready":  true,
	"/metrics":   true,
}

// AccessLogMiddleware writes one structured record per request through the
// request-scoped logger. Routes are logged by pattern; probes and scrapes go
// to debug. Event streams are logged when the handler returns, with bytes_out -1.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet; report what it will send.
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		bytesOut := -1
		if !c.Response().IsBodyStream() {
			bytesOut = len(c.Response().Body())
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quietRoutes[route]:
			level = slog.LevelDebug
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", bytesOut),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		logging.FromContext(c.UserContext()).LogAttrs(c.UserContext(), level, "http request", attrs...)
		return err
	}
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapexplorer/internal/pkg/logging"
)

const sessionsPrefix = "/v1/sessions/"

// RequestLoggerMiddleware stores a request-scoped logger in the user context.
// The logger carries the request ID set by the requestid middleware and, on
// session routes, the session ID, so use cases log with both.
func RequestLoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var attrs []any
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			attrs = append(attrs, "request_id", rid)
		}
		if id := sessionFromPath(c.Path()); id != "" {
			attrs = append(attrs, "session", id)
		}
		if len(attrs) > 0 {
			log := logging.FromContext(c.UserContext()).With(attrs...)
			c.SetUserContext(logging.NewContext(c.UserContext(), log))
		}
		return c.Next()
	}
}

// sessionFromPath extracts the id from /v1/sessions/{id}[/...]. Route params
// are not resolved yet when app-level middleware runs.
func sessionFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, sessionsPrefix)
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}

package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
	"github.com/samirrijal/mapexplorer/internal/pkg/logging"
)

// StreamHandler runs a query and streams its live map events as Server-Sent
// Events: reset, location, line, then finalized or error. The client
// disconnecting cancels the query.
func StreamHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return writeError(c, domain.ErrEmptyQuery)
		}
		if _, err := deps.Sessions.View(id); err != nil {
			return writeError(c, err)
		}

		log := logging.FromContext(c.UserContext())
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no") // Disable nginx buffering

		// The writer outlives the handler, so it must not touch c.
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ctx, cancel := queryContext(logging.NewContext(context.Background(), log), deps.QueryTimeout)
			defer cancel()

			terminal := false
			onEvent := func(ev domain.MapEvent) {
				if ev.Kind == domain.EventFinalized || ev.Kind == domain.EventError {
					terminal = true
				}
				if err := writeSSE(w, string(ev.Kind), ev); err != nil {
					cancel()
				}
			}

			_, err := deps.Explorer.Explore(ctx, id, query, onEvent)
			if err != nil {
				log.Info("stream query ended", "error", err)
				if !terminal {
					_ = writeSSE(w, string(domain.EventError), domain.MapEvent{
						SessionID: id,
						Kind:      domain.EventError,
						Error:     err.Error(),
					})
				}
			}
		})
		return nil
	}
}

// writeSSE sends one named event and flushes it to the client.
func writeSSE(w *bufio.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}

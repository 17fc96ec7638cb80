package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
	"github.com/samirrijal/mapexplorer/internal/core/usecases"
	"github.com/samirrijal/mapexplorer/internal/pkg/logging"
)

type createSessionRequest struct {
	Mode string `json:"mode"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// selectRequest selects a card by index, or by name for timeline clicks.
type selectRequest struct {
	Index *int   `json:"index"`
	Name  string `json:"name"`
}

type navigateRequest struct {
	Delta int `json:"delta"`
}

type timelineRequest struct {
	Open bool `json:"open"`
}

type navigateResponse struct {
	Moved bool        `json:"moved"`
	View  domain.View `json:"view"`
}

// parseBody decodes an optional JSON body; an empty body leaves v untouched.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	c.Request().Header.SetContentType(fiber.MIMEApplicationJSON)
	return c.BodyParser(v)
}

// CreateSessionHandler starts an empty session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSessionRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		mode, err := domain.ParseMode(req.Mode)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		view, err := deps.Sessions.Create(mode)
		if err != nil {
			return writeError(c, err)
		}
		logging.FromContext(c.UserContext()).Info("session created", "session", view.SessionID, "mode", view.Mode)
		return c.Status(fiber.StatusCreated).JSON(view)
	}
}

// GetSessionHandler returns the current view of a session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := deps.Sessions.View(c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(view)
	}
}

// DeleteSessionHandler drops a session and aborts its running query.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ResetSessionHandler clears every entity and invalidates the running query.
func ResetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := deps.Sessions.Reset(c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(view)
	}
}

// QueryHandler runs a query to completion and returns the finalized view.
func QueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req queryRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ctx, cancel := queryContext(c.UserContext(), deps.QueryTimeout)
		defer cancel()

		view, err := deps.Explorer.Explore(ctx, c.Params("id"), req.Query, nil)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(view)
	}
}

// SetModeHandler flips the explorer / day-planner toggle.
func SetModeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req modeRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.Mode) == "" {
			return errBadRequest(c, "mode is required")
		}
		mode, err := domain.ParseMode(req.Mode)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		view, err := deps.Sessions.SetMode(c.Params("id"), mode)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(view)
	}
}

// SelectHandler activates a card by index or by location name.
func SelectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req selectRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		var (
			view domain.View
			err  error
		)
		switch {
		case req.Index != nil:
			view, err = deps.Sessions.Select(c.Params("id"), *req.Index)
		case req.Name != "":
			view, err = deps.Sessions.SelectByName(c.Params("id"), req.Name)
		default:
			return errBadRequest(c, "index or name is required")
		}
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(view)
	}
}

// NavigateHandler moves the selection to the previous or next card.
func NavigateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req navigateRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Delta != -1 && req.Delta != 1 {
			return errBadRequest(c, "delta must be -1 or 1")
		}

		view, moved, err := deps.Sessions.Navigate(c.Params("id"), req.Delta)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(navigateResponse{Moved: moved, View: view})
	}
}

// TimelineHandler opens or closes the timeline panel.
func TimelineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req timelineRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		view, err := deps.Sessions.SetTimelineOpen(c.Params("id"), req.Open)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(view)
	}
}

// ExportHandler downloads the day plan as text (default) or iCalendar.
// An empty itinerary answers 204 with no body.
func ExportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var (
			data                []byte
			err                 error
			filename, mediaType string
		)
		switch c.Query("format", "txt") {
		case "txt", "text":
			data, err = deps.Exports.Text(id)
			filename, mediaType = usecases.PlanFilename, "text/plain; charset=utf-8"
		case "ics", "ical":
			var day time.Time
			if raw := c.Query("date"); raw != "" {
				day, err = time.Parse(time.DateOnly, raw)
				if err != nil {
					return errBadRequest(c, "date must be YYYY-MM-DD")
				}
			}
			data, err = deps.Exports.Calendar(id, day)
			filename, mediaType = usecases.CalendarFilename, "text/calendar; charset=utf-8"
		default:
			return errBadRequest(c, "format must be txt or ics")
		}
		if errors.Is(err, domain.ErrEmptyItinerary) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		if err != nil {
			return writeError(c, err)
		}

		c.Set(fiber.HeaderContentType, mediaType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(data)
	}
}

// SnapshotHandler renders the map surface of a session as a PNG.
func SnapshotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Renderer == nil {
			return errUnavailable(c, "map snapshots are not configured")
		}
		view, err := deps.Sessions.View(c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		if len(view.Markers) == 0 && len(view.Lines) == 0 {
			return c.SendStatus(fiber.StatusNoContent)
		}

		img, err := deps.Renderer.Snapshot(c.UserContext(), &view)
		if err != nil {
			return writeError(c, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(buf.Bytes())
	}
}

func queryContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

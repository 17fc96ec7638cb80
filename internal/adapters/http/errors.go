package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, no_results, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "conflict", msg)
}

// errUnprocessable returns a 422 error.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnprocessableEntity, "no_results", msg)
}

// errBadGateway returns a 502 error carrying the upstream message unchanged.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "provider_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// writeError maps a use-case error onto the APIError envelope.
func writeError(c *fiber.Ctx, err error) error {
	var perr *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrIndexOutOfRange):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNoResults):
		return errUnprocessable(c, err.Error())
	case errors.Is(err, domain.ErrSuperseded):
		return errConflict(c, err.Error())
	case errors.Is(err, domain.ErrTooManySessions):
		return errUnavailable(c, err.Error())
	case errors.As(err, &perr):
		return errBadGateway(c, perr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusGatewayTimeout, "timeout", "query timed out")
	default:
		return errInternal(c, err.Error())
	}
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResults is returned when a completed stream carried no structured call.
	ErrNoResults = errors.New("Could not generate any results. Try again, or try a different prompt.")

	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyItinerary  = errors.New("itinerary is empty")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrTooManySessions = errors.New("too many active sessions")
	ErrEmptyQuery      = errors.New("query must not be empty")

	// ErrSuperseded means a reset or a newer query invalidated the running one.
	ErrSuperseded = errors.New("query superseded by a newer request")
)

// ProviderError wraps a failure from the model or mapping provider.
// Its message is the provider's message, unmodified.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string { return e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedEventError describes a structured call that failed validation.
type MalformedEventError struct {
	Function string
	Reason   string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: %s", e.Function, e.Reason)
}

package domain

import (
	"fmt"
	"strings"
)

// Mode selects how queries are framed and how results are rendered.
type Mode int

const (
	ModeExplorer Mode = iota
	ModeDayPlanner
)

// ParseMode accepts "explorer" or "planner" (and a few aliases); empty means explorer.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "explorer", "explore":
		return ModeExplorer, nil
	case "planner", "day_planner", "day-planner", "dayplanner":
		return ModeDayPlanner, nil
	default:
		return ModeExplorer, fmt.Errorf("unknown mode %q", s)
	}
}

func (m Mode) String() string {
	if m == ModeDayPlanner {
		return "planner"
	}
	return "explorer"
}

// Flag is the literal substituted into the system instruction.
func (m Mode) Flag() string {
	if m == ModeDayPlanner {
		return "true"
	}
	return "false"
}

// Placeholder is the prompt box hint shown while the mode is selected.
func (m Mode) Placeholder() string {
	if m == ModeDayPlanner {
		return "Create a day plan in... (e.g. 'Plan a day exploring Central Park' or 'One day in Paris')"
	}
	return "Explore places, history, events, or ask about any location..."
}

// Location is a point of interest emitted by the model. Its name is its identity.
type Location struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Position    GeoPoint `json:"position"`
	Time        string   `json:"time,omitempty"`     // "HH:MM"
	Duration    string   `json:"duration,omitempty"` // free text, e.g. "1 hour"
	Sequence    int      `json:"sequence,omitempty"` // 1-based; 0 when absent
}

// HasSequence reports whether the model gave the location an itinerary position.
func (l Location) HasSequence() bool { return l.Sequence >= 1 }

// Route is a leg between two points emitted by the model.
type Route struct {
	Name       string   `json:"name"`
	Start      GeoPoint `json:"start"`
	End        GeoPoint `json:"end"`
	Transport  string   `json:"transport,omitempty"`
	TravelTime string   `json:"travel_time,omitempty"`
}

// FunctionCall is one structured call taken from the model stream.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ModelChunk is one increment of a streamed model response.
type ModelChunk struct {
	Calls []FunctionCall `json:"calls,omitempty"`
	Text  string         `json:"text,omitempty"`
}

// ModelRequest is everything sent to the generative model for one query.
type ModelRequest struct {
	Prompt            string
	SystemInstruction string
	Temperature       float32
}

// EventKind tags live map events.
type EventKind string

const (
	EventReset     EventKind = "reset"
	EventLocation  EventKind = "location"
	EventLine      EventKind = "line"
	EventFinalized EventKind = "finalized"
	EventError     EventKind = "error"
)

// MapEvent is the progressive feedback emitted while a response is ingested.
type MapEvent struct {
	SessionID  string    `json:"session_id"`
	Generation uint64    `json:"generation"`
	Kind       EventKind `json:"kind"`
	Marker     *Marker   `json:"marker,omitempty"`
	Popup      *Popup    `json:"popup,omitempty"`
	Line       *Line     `json:"line,omitempty"`
	Bounds     *Bounds   `json:"bounds,omitempty"`
	View       *View     `json:"view,omitempty"`
	Error      string    `json:"error,omitempty"`
}

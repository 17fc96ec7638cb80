package domain

import (
	"slices"
	"strings"
)

// Itinerary holds the locations and routes of one response cycle.
// It is append-only until Finalize; a reset replaces it wholesale.
type Itinerary struct {
	locations []Location
	routes    []Route
	timed     []Location
	plan      []Location
	finalized bool
}

// AddLocation appends a location. In day-planner mode a location with a
// time is also registered as an itinerary candidate.
func (it *Itinerary) AddLocation(loc Location, mode Mode) {
	it.locations = append(it.locations, loc)
	if mode == ModeDayPlanner && loc.Time != "" {
		it.timed = append(it.timed, loc)
	}
}

// AddRoute appends a route.
func (it *Itinerary) AddRoute(r Route) {
	it.routes = append(it.routes, r)
}

// Finalize recomputes the ordered plan from scratch. The plan is only
// populated in day-planner mode when at least one timed location exists.
func (it *Itinerary) Finalize(mode Mode) {
	it.finalized = true
	it.plan = nil
	if mode != ModeDayPlanner || len(it.timed) == 0 {
		return
	}
	it.plan = slices.Clone(it.timed)
	slices.SortStableFunc(it.plan, ComparePlanEntries)
}

// ComparePlanEntries orders by sequence (absent last), then by time string.
func ComparePlanEntries(a, b Location) int {
	switch {
	case a.HasSequence() && b.HasSequence() && a.Sequence != b.Sequence:
		if a.Sequence < b.Sequence {
			return -1
		}
		return 1
	case a.HasSequence() && !b.HasSequence():
		return -1
	case !a.HasSequence() && b.HasSequence():
		return 1
	}
	return strings.Compare(a.Time, b.Time)
}

// Finalized reports whether Finalize ran since the last reset.
func (it *Itinerary) Finalized() bool { return it.finalized }

// Locations returns the locations in arrival order.
func (it *Itinerary) Locations() []Location { return slices.Clone(it.locations) }

// Routes returns the routes in arrival order.
func (it *Itinerary) Routes() []Route { return slices.Clone(it.routes) }

// Plan returns the sorted day plan; empty outside day-planner mode.
func (it *Itinerary) Plan() []Location { return slices.Clone(it.plan) }

// Len returns the number of locations.
func (it *Itinerary) Len() int { return len(it.locations) }

// Location returns the location at index i.
func (it *Itinerary) Location(i int) (Location, bool) {
	if i < 0 || i >= len(it.locations) {
		return Location{}, false
	}
	return it.locations[i], true
}

// IndexOf returns the index of the first location with the given name, or -1.
func (it *Itinerary) IndexOf(name string) int {
	return slices.IndexFunc(it.locations, func(l Location) bool { return l.Name == name })
}

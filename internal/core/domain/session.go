package domain

// Phase separates the incremental ingest phase, where only map surfaces
// change, from the finalized phase, where every surface is synchronized.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseIngesting Phase = "ingesting"
	PhaseFinalized Phase = "finalized"
	PhaseFailed    Phase = "failed"
)

// Event is one validated structured call: exactly one field is set.
type Event struct {
	Location *Location
	Route    *Route
}

// Session owns every entity of one exploration: points, itinerary,
// selection and mode. It is not safe for concurrent use.
type Session struct {
	ID string

	// Mode is what the toggle shows and applies to the next query.
	// RenderMode is the mode the current data was produced under.
	Mode       Mode
	RenderMode Mode

	Query      string
	Phase      Phase
	Error      string
	Generation uint64

	Points    GeoStore
	Itinerary Itinerary

	// Selected is -1 when there is nothing to select.
	Selected     int
	TimelineOpen bool
}

// NewSession returns an empty session.
func NewSession(id string, mode Mode) *Session {
	return &Session{
		ID:         id,
		Mode:       mode,
		RenderMode: mode,
		Phase:      PhaseIdle,
		Selected:   -1,
	}
}

// Reset returns a fresh session keeping only the identity and the selected
// mode. The generation is bumped so events of the old query are recognisable.
func (s *Session) Reset() *Session {
	n := NewSession(s.ID, s.Mode)
	n.Generation = s.Generation + 1
	return n
}

// Begin marks the start of a query; the current toggle mode becomes the render mode.
func (s *Session) Begin(query string) {
	s.Query = query
	s.RenderMode = s.Mode
	s.Phase = PhaseIngesting
	s.Error = ""
}

// Ingest applies one event to the point store and the itinerary.
func (s *Session) Ingest(ev Event) {
	switch {
	case ev.Location != nil:
		s.Points.Add(ev.Location.Position)
		s.Itinerary.AddLocation(*ev.Location, s.RenderMode)
	case ev.Route != nil:
		s.Points.Add(ev.Route.Start, ev.Route.End)
		s.Itinerary.AddRoute(*ev.Route)
	}
}

// Finalize closes the ingest phase: the plan is sorted, the first card is
// selected and the timeline opens when there is a plan to show and the
// toggle is still on day-planner.
func (s *Session) Finalize() {
	s.Itinerary.Finalize(s.RenderMode)
	s.Phase = PhaseFinalized
	s.Selected = -1
	if s.Itinerary.Len() > 0 {
		s.Selected = 0
	}
	s.TimelineOpen = s.RenderMode == ModeDayPlanner && s.Mode == ModeDayPlanner && len(s.Itinerary.plan) > 0
}

// Fail records a terminal error for the running query.
func (s *Session) Fail(err error) {
	s.Phase = PhaseFailed
	s.Error = err.Error()
}

// Select makes the location at index i the active one.
func (s *Session) Select(i int) error {
	if s.Phase != PhaseFinalized || i < 0 || i >= s.Itinerary.Len() {
		return ErrIndexOutOfRange
	}
	s.Selected = i
	return nil
}

// SelectByName selects the first location carrying the given name.
func (s *Session) SelectByName(name string) error {
	i := s.Itinerary.IndexOf(name)
	if i < 0 {
		return ErrIndexOutOfRange
	}
	return s.Select(i)
}

// Navigate moves the selection by delta. Moving past either end is a no-op
// and reports false.
func (s *Session) Navigate(delta int) bool {
	if s.Selected < 0 {
		return false
	}
	return s.Select(s.Selected+delta) == nil
}

// SetMode flips the toggle. Leaving day-planner mode closes the timeline
// panel; the itinerary itself is kept.
func (s *Session) SetMode(m Mode) {
	s.Mode = m
	if m != ModeDayPlanner {
		s.TimelineOpen = false
	}
}

// SetTimelineOpen opens or closes the timeline panel. Opening requires the
// day-planner toggle and a non-empty plan.
func (s *Session) SetTimelineOpen(open bool) {
	if open && (s.Mode != ModeDayPlanner || len(s.Itinerary.plan) == 0) {
		open = false
	}
	s.TimelineOpen = open
}

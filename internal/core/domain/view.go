package domain

// PopupHideThresholdPx is how far off-screen (in projected pixels) a popup
// may sit before the client stops drawing it.
const PopupHideThresholdPx = 4000

// View is the full render state of a session for every surface.
type View struct {
	SessionID   string   `json:"session_id"`
	Generation  uint64   `json:"generation"`
	Mode        string   `json:"mode"`
	RenderMode  string   `json:"render_mode"`
	Placeholder string   `json:"placeholder"`
	Phase       Phase    `json:"phase"`
	Query       string   `json:"query,omitempty"`
	Error       string   `json:"error,omitempty"`
	Selected    int      `json:"selected"`
	Bounds      *Bounds  `json:"bounds,omitempty"`
	Markers     []Marker `json:"markers"`
	Lines       []Line   `json:"lines"`
	Popups      []Popup  `json:"popups"`
	Carousel    Carousel `json:"carousel"`
	Timeline    Timeline `json:"timeline"`
}

type Marker struct {
	Title    string   `json:"title"`
	Position GeoPoint `json:"position"`
}

type Popup struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Time         string   `json:"time,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	Position     GeoPoint `json:"position"`
	Visible      bool     `json:"visible"`
	Active       bool     `json:"active"`
	HideBeyondPx int      `json:"hide_beyond_px"`
}

// StrokeIcon is a repeated symbol drawn along a stroke.
type StrokeIcon struct {
	Path          string  `json:"path"`
	StrokeOpacity float64 `json:"stroke_opacity"`
	Scale         int     `json:"scale"`
	Offset        string  `json:"offset"`
	Repeat        string  `json:"repeat"`
}

type Stroke struct {
	Color   string       `json:"color,omitempty"`
	Opacity float64      `json:"opacity"`
	Weight  int          `json:"weight"`
	Icons   []StrokeIcon `json:"icons,omitempty"`
}

// Line is a route drawn as two overlaid strokes: an invisible hit target
// and the visible styled stroke.
type Line struct {
	Name       string     `json:"name"`
	Path       []GeoPoint `json:"path"`
	HitTarget  Stroke     `json:"hit_target"`
	Stroke     Stroke     `json:"stroke"`
	Transport  string     `json:"transport,omitempty"`
	TravelTime string     `json:"travel_time,omitempty"`
	// DistanceMeters is the straight-line length of the leg, rounded to the metre.
	DistanceMeters float64 `json:"distance_m"`
}

type Carousel struct {
	Visible  bool   `json:"visible"`
	Cards    []Card `json:"cards"`
	Dots     []Dot  `json:"dots"`
	ScrollTo int    `json:"scroll_to"`
}

type Card struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Coordinates string `json:"coordinates"`
	Image       string `json:"image"`
	Planner     bool   `json:"planner"`
	Sequence    int    `json:"sequence,omitempty"`
	Time        string `json:"time,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Active      bool   `json:"active"`
}

type Dot struct {
	Index  int  `json:"index"`
	Active bool `json:"active"`
}

type Timeline struct {
	Visible  bool          `json:"visible"`
	Rows     []TimelineRow `json:"rows"`
	ScrollTo int           `json:"scroll_to"`
}

const (
	RowStop      = "stop"
	RowTransport = "transport"
)

// TimelineRow is a stop of the plan or a transport leg between two stops.
// LocationIndex points into the card sequence and is -1 for transport rows.
type TimelineRow struct {
	Kind          string `json:"kind"`
	Time          string `json:"time"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Duration      string `json:"duration,omitempty"`
	Icon          string `json:"icon,omitempty"`
	LocationIndex int    `json:"location_index"`
	Active        bool   `json:"active"`
}

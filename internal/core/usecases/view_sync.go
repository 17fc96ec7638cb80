package usecases

import (
	"fmt"
	"html"
	"math"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
	"github.com/samirrijal/mapexplorer/internal/pkg/geospatial"
)

const (
	explorerLineColor = "#CC0099"
	plannerLineColor  = "#2196F3"
	flexibleTime      = "Flexible"
)

// BuildView renders every surface of a session. It reads the session only,
// so calling it twice on unchanged state yields identical views.
//
// Map surfaces (markers, lines, popups, bounds) are rendered in every phase;
// the carousel and the timeline only once the response is finalized.
func BuildView(s *domain.Session) domain.View {
	locs := s.Itinerary.Locations()
	routes := s.Itinerary.Routes()

	v := domain.View{
		SessionID:   s.ID,
		Generation:  s.Generation,
		Mode:        s.Mode.String(),
		RenderMode:  s.RenderMode.String(),
		Placeholder: s.Mode.Placeholder(),
		Phase:       s.Phase,
		Query:       s.Query,
		Error:       s.Error,
		Selected:    s.Selected,
		Markers:     make([]domain.Marker, 0, len(locs)),
		Popups:      make([]domain.Popup, 0, len(locs)),
		Lines:       make([]domain.Line, 0, len(routes)),
		Carousel:    domain.Carousel{Cards: []domain.Card{}, Dots: []domain.Dot{}, ScrollTo: -1},
		Timeline:    domain.Timeline{Rows: []domain.TimelineRow{}, ScrollTo: -1},
	}
	if b, ok := s.Points.Region(); ok {
		v.Bounds = &b
	}

	for i, loc := range locs {
		v.Markers = append(v.Markers, MarkerFor(loc))
		v.Popups = append(v.Popups, PopupFor(loc, s.RenderMode, i, s.Selected))
	}
	for _, r := range routes {
		v.Lines = append(v.Lines, LineFor(r, s.RenderMode))
	}

	if s.Phase == domain.PhaseFinalized && len(locs) > 0 {
		v.Carousel = buildCarousel(locs, s.RenderMode, s.Selected)
	}
	if plan := s.Itinerary.Plan(); len(plan) > 0 {
		v.Timeline = buildTimeline(plan, routes, s)
	}
	return v
}

// MarkerFor returns the map marker of a location.
func MarkerFor(loc domain.Location) domain.Marker {
	return domain.Marker{Title: loc.Name, Position: loc.Position}
}

// PopupFor returns the popup of the location at index i. Explorer mode
// shows every popup; day-planner mode shows only the selected one.
func PopupFor(loc domain.Location, mode domain.Mode, i, selected int) domain.Popup {
	return domain.Popup{
		Name:         loc.Name,
		Description:  loc.Description,
		Time:         loc.Time,
		Duration:     loc.Duration,
		Position:     loc.Position,
		Visible:      mode == domain.ModeExplorer || i == selected,
		Active:       i == selected,
		HideBeyondPx: domain.PopupHideThresholdPx,
	}
}

// LineFor returns the two strokes drawn for a route.
func LineFor(r domain.Route, mode domain.Mode) domain.Line {
	stroke := domain.Stroke{Color: explorerLineColor, Opacity: 1, Weight: 3}
	if mode == domain.ModeDayPlanner {
		stroke = domain.Stroke{
			Color:   plannerLineColor,
			Opacity: 1,
			Weight:  4,
			Icons: []domain.StrokeIcon{{
				Path:          "M 0,-1 0,1",
				StrokeOpacity: 1,
				Scale:         3,
				Offset:        "0",
				Repeat:        "15px",
			}},
		}
	}
	return domain.Line{
		Name:       r.Name,
		Path:       []domain.GeoPoint{r.Start, r.End},
		HitTarget:  domain.Stroke{Opacity: 0, Weight: 3},
		Stroke:     stroke,
		Transport:  r.Transport,
		TravelTime: r.TravelTime,
		DistanceMeters: math.Round(geospatial.Haversine(
			r.Start.Lat, r.Start.Lng, r.End.Lat, r.End.Lng,
		)),
	}
}

func buildCarousel(locs []domain.Location, mode domain.Mode, selected int) domain.Carousel {
	planner := mode == domain.ModeDayPlanner
	c := domain.Carousel{
		Visible:  true,
		Cards:    make([]domain.Card, 0, len(locs)),
		Dots:     make([]domain.Dot, 0, len(locs)),
		ScrollTo: selected,
	}
	for i, loc := range locs {
		card := domain.Card{
			Index:       i,
			Name:        loc.Name,
			Description: loc.Description,
			Coordinates: fmt.Sprintf("%.5f, %.5f", loc.Position.Lat, loc.Position.Lng),
			Image:       PlaceholderImage(loc.Name),
			Planner:     planner,
			Active:      i == selected,
		}
		if planner {
			card.Sequence = loc.Sequence
			card.Time = loc.Time
			card.Duration = loc.Duration
		}
		c.Cards = append(c.Cards, card)
		c.Dots = append(c.Dots, domain.Dot{Index: i, Active: i == selected})
	}
	return c
}

func buildTimeline(plan []domain.Location, routes []domain.Route, s *domain.Session) domain.Timeline {
	t := domain.Timeline{
		Visible:  s.TimelineOpen,
		Rows:     make([]domain.TimelineRow, 0, 2*len(plan)),
		ScrollTo: -1,
	}

	activeName := ""
	if loc, ok := s.Itinerary.Location(s.Selected); ok {
		activeName = loc.Name
	}

	for i, item := range plan {
		row := domain.TimelineRow{
			Kind:          domain.RowStop,
			Time:          item.Time,
			Title:         item.Name,
			Description:   item.Description,
			Duration:      item.Duration,
			LocationIndex: s.Itinerary.IndexOf(item.Name),
		}
		if row.Time == "" {
			row.Time = flexibleTime
		}
		if t.ScrollTo < 0 && activeName != "" && item.Name == activeName {
			row.Active = true
			t.ScrollTo = len(t.Rows)
		}
		t.Rows = append(t.Rows, row)

		if i == len(plan)-1 {
			continue
		}
		r, ok := domain.ConnectingRoute(routes, item, plan[i+1])
		if !ok || (r.Transport == "" && r.TravelTime == "") {
			continue
		}
		title := r.Transport
		if title == "" {
			title = "Travel"
		}
		t.Rows = append(t.Rows, domain.TimelineRow{
			Kind:          domain.RowTransport,
			Title:         title,
			Description:   r.Name,
			Duration:      r.TravelTime,
			Icon:          domain.TransportIcon(r.Transport),
			LocationIndex: -1,
		})
	}
	return t
}

// PlaceholderImage returns an SVG data URI tinted from the name's hash and
// showing its first letter.
func PlaceholderImage(name string) string {
	var hash int32
	for _, r := range name {
		hash = r + ((hash << 5) - hash)
	}
	h := int(hash)
	if h < 0 {
		h = -h
	}
	hue := h % 360
	saturation := 60 + h%30
	lightness := 50 + h%20

	letter := "?"
	if r, _ := utf8.DecodeRuneInString(name); r != utf8.RuneError {
		letter = string(unicode.ToUpper(r))
	}

	svg := strings.Join([]string{
		`<svg xmlns="http://www.w3.org/2000/svg" width="300" height="180" viewBox="0 0 300 180">`,
		fmt.Sprintf(`<rect width="300" height="180" fill="hsl(%d, %d%%, %d%%)" />`, hue, saturation, lightness),
		fmt.Sprintf(`<text x="150" y="95" font-family="Arial, sans-serif" font-size="72" fill="white" text-anchor="middle" dominant-baseline="middle">%s</text>`, html.EscapeString(letter)),
		`</svg>`,
	}, "")
	return "data:image/svg+xml," + url.PathEscape(svg)
}

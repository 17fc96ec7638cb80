package gmaps

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
	"github.com/samirrijal/mapexplorer/internal/pkg/geospatial"
)

// ErrEmptyView is returned when a view has nothing to draw.
var ErrEmptyView = errors.New("view has no markers or lines")

const markerLabels = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// minVisibleSpanMeters keeps a single-place view from zooming in to street level.
const minVisibleSpanMeters = 500

// Renderer implements ports.MapRenderer with the Static Maps API.
type Renderer struct {
	size      string
	staticMap func(ctx context.Context, r *maps.StaticMapRequest) (image.Image, error)
}

// New creates a Renderer producing images of width x height pixels.
func New(apiKey string, width, height int) (*Renderer, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &Renderer{size: fmt.Sprintf("%dx%d", width, height), staticMap: c.StaticMap}, nil
}

// Snapshot draws the markers and route strokes of a view, fitted to its bounds.
func (r *Renderer) Snapshot(ctx context.Context, view *domain.View) (image.Image, error) {
	req, err := r.request(view)
	if err != nil {
		return nil, err
	}
	img, err := r.staticMap(ctx, req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "google-maps", Err: err}
	}
	return img, nil
}

func (r *Renderer) request(view *domain.View) (*maps.StaticMapRequest, error) {
	if len(view.Markers) == 0 && len(view.Lines) == 0 {
		return nil, ErrEmptyView
	}
	req := &maps.StaticMapRequest{Size: r.size}

	for i, m := range view.Markers {
		marker := maps.Marker{
			Location: []maps.LatLng{latLng(m.Position)},
			Color:    "red",
		}
		if i < len(markerLabels) {
			marker.Label = string(markerLabels[i])
		}
		if i == view.Selected {
			marker.Color = "blue"
		}
		req.Markers = append(req.Markers, marker)
	}
	for _, l := range view.Lines {
		path := maps.Path{
			Color:  staticColor(l.Stroke.Color),
			Weight: l.Stroke.Weight,
		}
		for _, p := range l.Path {
			path.Location = append(path.Location, latLng(p))
		}
		req.Paths = append(req.Paths, path)
	}
	if b := view.Bounds; b != nil {
		minLat, minLng, maxLat, maxLng := geospatial.EnsureSpan(b.MinLat, b.MinLng, b.MaxLat, b.MaxLng, minVisibleSpanMeters)
		req.Visible = []maps.LatLng{
			{Lat: minLat, Lng: minLng},
			{Lat: maxLat, Lng: maxLng},
		}
	}
	return req, nil
}

func latLng(p domain.GeoPoint) maps.LatLng {
	return maps.LatLng{Lat: p.Lat, Lng: p.Lng}
}

// staticColor turns "#RRGGBB" into the 0xRRGGBBAA form the Static Maps API expects.
func staticColor(css string) string {
	hex := strings.TrimPrefix(css, "#")
	if len(hex) != 6 {
		return "0x000000ff"
	}
	return "0x" + strings.ToUpper(hex) + "ff"
}

package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is a finite coordinate inside the WGS 84 ranges.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}

// GeoStore accumulates raw samples and the region fitting all of them.
// The zero value is empty and ready to use.
type GeoStore struct {
	points []GeoPoint
	bounds Bounds
}

// Add appends points and grows the region to include them.
func (s *GeoStore) Add(points ...GeoPoint) {
	for _, p := range points {
		if len(s.points) == 0 {
			s.bounds = Bounds{MinLat: p.Lat, MinLng: p.Lng, MaxLat: p.Lat, MaxLng: p.Lng}
		} else {
			s.bounds.MinLat = math.Min(s.bounds.MinLat, p.Lat)
			s.bounds.MinLng = math.Min(s.bounds.MinLng, p.Lng)
			s.bounds.MaxLat = math.Max(s.bounds.MaxLat, p.Lat)
			s.bounds.MaxLng = math.Max(s.bounds.MaxLng, p.Lng)
		}
		s.points = append(s.points, p)
	}
}

// Points returns a copy of the accumulated samples in insertion order.
func (s *GeoStore) Points() []GeoPoint {
	out := make([]GeoPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Len returns the number of accumulated samples.
func (s *GeoStore) Len() int { return len(s.points) }

// Region returns the bounding box of every sample; ok is false while the store is empty.
func (s *GeoStore) Region() (b Bounds, ok bool) {
	if len(s.points) == 0 {
		return Bounds{}, false
	}
	return s.bounds, true
}

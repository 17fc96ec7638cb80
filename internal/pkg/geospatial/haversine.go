package geospatial

import "math"

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6_371_000.0

const metersPerDegreeLat = 111_320.0

// Haversine returns the great-circle distance in meters between two points
// given in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	p1, p2 := toRad(lat1), toRad(lat2)
	h := hav(p2-p1) + math.Cos(p1)*math.Cos(p2)*hav(toRad(lng2-lng1))
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Around returns the box reaching radius meters from a point in each direction.
func Around(lat, lng, radius float64) (minLat, minLng, maxLat, maxLng float64) {
	latDelta := radius / metersPerDegreeLat
	lngDelta := 180.0
	if c := math.Cos(toRad(lat)); c > 1e-9 {
		lngDelta = math.Min(180, radius/(metersPerDegreeLat*c))
	}
	return math.Max(-90, lat-latDelta), lng - lngDelta, math.Min(90, lat+latDelta), lng + lngDelta
}

// EnsureSpan widens a box around its centre until its diagonal covers at
// least minMeters. Wider boxes are returned unchanged.
func EnsureSpan(minLat, minLng, maxLat, maxLng, minMeters float64) (float64, float64, float64, float64) {
	if Haversine(minLat, minLng, maxLat, maxLng) >= minMeters {
		return minLat, minLng, maxLat, maxLng
	}
	// A square box of half-side r has a diagonal of 2r*sqrt(2).
	return Around((minLat+maxLat)/2, (minLng+maxLng)/2, minMeters/(2*math.Sqrt2))
}

func hav(theta float64) float64 {
	s := math.Sin(theta / 2)
	return s * s
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

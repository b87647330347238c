// Package geo provides the geospatial math shared by the fraud detectors:
// great-circle distance, bearing, bounding-box membership and implied speed.
// All functions are pure and safe for concurrent use.
package geo

import "math"

const earthRadiusKm = 6371.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceKm returns the haversine distance between two points in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceMeters returns the haversine distance between two points in meters.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceKm(lat1, lon1, lat2, lon2) * 1000
}

// Bearing returns the initial compass bearing from the first point to the
// second, in degrees within [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dLon := toRadians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	deg := toDegrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// SpeedKmh returns the speed implied by covering distanceMeters in
// elapsedSeconds. Non-positive elapsed time yields zero.
func SpeedKmh(distanceMeters, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return (distanceMeters / elapsedSeconds) * 3.6
}

// BoundingBox is an axis-aligned latitude/longitude rectangle.
type BoundingBox struct {
	Name   string  `json:"name"`
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether the point lies inside the box, borders included.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// CircularZone is a named circle used for restricted-area proximity checks.
type CircularZone struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// Contains reports whether the point lies within the zone radius.
func (z CircularZone) Contains(lat, lng float64) bool {
	return DistanceMeters(z.Latitude, z.Longitude, lat, lng) <= z.RadiusMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func toDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmKnownCities(t *testing.T) {
	// Manila to Cebu is roughly 572 km great-circle.
	dist := DistanceKm(14.5995, 120.9842, 10.3157, 123.8854)
	assert.InDelta(t, 572, dist, 10)
}

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(14.5995, 120.9842, 14.5995, 120.9842))
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := DistanceKm(14.5995, 120.9842, 10.3157, 123.8854)
	b := DistanceKm(10.3157, 123.8854, 14.5995, 120.9842)
	assert.InDelta(t, a, b, 1e-9)
}

func TestDistanceKmTriangleInequality(t *testing.T) {
	points := [][2]float64{
		{14.5995, 120.9842}, // Manila
		{10.3157, 123.8854}, // Cebu
		{7.1907, 125.4553},  // Davao
		{16.4023, 120.5960}, // Baguio
	}

	for i, a := range points {
		for j, b := range points {
			for _, c := range points {
				direct := DistanceKm(a[0], a[1], b[0], b[1])
				detour := DistanceKm(a[0], a[1], c[0], c[1]) + DistanceKm(c[0], c[1], b[0], b[1])
				assert.LessOrEqualf(t, direct, detour+1e-9, "points %d->%d", i, j)
			}
		}
	}
}

func TestDistanceMetersScalesKm(t *testing.T) {
	km := DistanceKm(14.55, 121.00, 14.56, 121.01)
	m := DistanceMeters(14.55, 121.00, 14.56, 121.01)
	assert.InDelta(t, km*1000, m, 1e-6)
}

func TestBearingCardinalDirections(t *testing.T) {
	// Due north, east, south and west from the origin.
	assert.InDelta(t, 0, Bearing(0, 0, 1, 0), 0.5)
	assert.InDelta(t, 90, Bearing(0, 0, 0, 1), 0.5)
	assert.InDelta(t, 180, Bearing(1, 0, 0, 0), 0.5)
	assert.InDelta(t, 270, Bearing(0, 1, 0, 0), 0.5)
}

func TestBearingRange(t *testing.T) {
	b := Bearing(14.6, 121.0, 14.5, 120.9)
	assert.GreaterOrEqual(t, b, 0.0)
	assert.Less(t, b, 360.0)
}

func TestSpeedKmh(t *testing.T) {
	assert.InDelta(t, 60, SpeedKmh(1000, 60), 1e-9)
	assert.Equal(t, 0.0, SpeedKmh(1000, 0))
	assert.Equal(t, 0.0, SpeedKmh(1000, -5))
}

func TestBoundingBoxContains(t *testing.T) {
	ph := BoundingBox{Name: "Philippines", MinLat: 4.5, MaxLat: 21.5, MinLng: 116.0, MaxLng: 127.0}

	// Manila is inside, the border counts as inside, Tokyo is out.
	assert.True(t, ph.Contains(14.5995, 120.9842))
	assert.True(t, ph.Contains(4.5, 116.0))
	assert.False(t, ph.Contains(35.6762, 139.6503))
}

func TestCircularZoneContains(t *testing.T) {
	naia := CircularZone{Name: "NAIA Airport", Latitude: 14.5086, Longitude: 121.0194, RadiusMeters: 5000}

	assert.True(t, naia.Contains(14.5086, 121.0194))
	assert.True(t, naia.Contains(14.52, 121.02)) // ~1.3 km north
	assert.False(t, naia.Contains(14.5995, 120.9842))
}

package gps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/richxcame/trust-safety/internal/geo"
)

// ParseServiceAreas parses a semicolon-separated list of bounding boxes,
// each in the form "Name:minLat:maxLat:minLng:maxLng". An empty string
// yields nil so the caller keeps its defaults.
func ParseServiceAreas(s string) ([]geo.BoundingBox, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var areas []geo.BoundingBox
	for _, entry := range strings.Split(s, ";") {
		parts := strings.Split(entry, ":")
		if len(parts) != 5 {
			return nil, fmt.Errorf("service area %q: want Name:minLat:maxLat:minLng:maxLng", entry)
		}
		vals, err := parseFloats(parts[1:])
		if err != nil {
			return nil, fmt.Errorf("service area %q: %w", entry, err)
		}
		areas = append(areas, geo.BoundingBox{
			Name:   strings.TrimSpace(parts[0]),
			MinLat: vals[0],
			MaxLat: vals[1],
			MinLng: vals[2],
			MaxLng: vals[3],
		})
	}
	return areas, nil
}

// ParseRestrictedZones parses a semicolon-separated list of circular zones,
// each in the form "Name:lat:lng:radiusMeters". An empty string yields nil.
func ParseRestrictedZones(s string) ([]geo.CircularZone, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var zones []geo.CircularZone
	for _, entry := range strings.Split(s, ";") {
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("restricted zone %q: want Name:lat:lng:radiusMeters", entry)
		}
		vals, err := parseFloats(parts[1:])
		if err != nil {
			return nil, fmt.Errorf("restricted zone %q: %w", entry, err)
		}
		zones = append(zones, geo.CircularZone{
			Name:         strings.TrimSpace(parts[0]),
			Latitude:     vals[0],
			Longitude:    vals[1],
			RadiusMeters: vals[2],
		})
	}
	return zones, nil
}

func parseFloats(parts []string) ([]float64, error) {
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

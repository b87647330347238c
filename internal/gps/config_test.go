package gps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceAreas(t *testing.T) {
	areas, err := ParseServiceAreas("Metro Manila:14.35:14.80:120.90:121.15;Cebu City:10.20:10.45:123.80:124.05")
	require.NoError(t, err)
	require.Len(t, areas, 2)

	assert.Equal(t, "Metro Manila", areas[0].Name)
	assert.Equal(t, 14.35, areas[0].MinLat)
	assert.Equal(t, 14.80, areas[0].MaxLat)
	assert.Equal(t, 120.90, areas[0].MinLng)
	assert.Equal(t, 121.15, areas[0].MaxLng)
	assert.Equal(t, "Cebu City", areas[1].Name)
}

func TestParseServiceAreasEmpty(t *testing.T) {
	areas, err := ParseServiceAreas("")
	require.NoError(t, err)
	assert.Nil(t, areas)
}

func TestParseServiceAreasMalformed(t *testing.T) {
	_, err := ParseServiceAreas("Metro Manila:14.35:14.80:120.90")
	assert.Error(t, err)

	_, err = ParseServiceAreas("Metro Manila:14.35:abc:120.90:121.15")
	assert.Error(t, err)
}

func TestParseRestrictedZones(t *testing.T) {
	zones, err := ParseRestrictedZones("NAIA:14.5086:121.0194:5000; Malacanang:14.5958:120.9936:1000")
	require.NoError(t, err)
	require.Len(t, zones, 2)

	assert.Equal(t, "NAIA", zones[0].Name)
	assert.Equal(t, 14.5086, zones[0].Latitude)
	assert.Equal(t, 121.0194, zones[0].Longitude)
	assert.Equal(t, 5000.0, zones[0].RadiusMeters)
	assert.Equal(t, "Malacanang", zones[1].Name)
	assert.Equal(t, 1000.0, zones[1].RadiusMeters)
}

func TestParseRestrictedZonesMalformed(t *testing.T) {
	_, err := ParseRestrictedZones("NAIA:14.5086:121.0194")
	assert.Error(t, err)

	_, err = ParseRestrictedZones("")
	assert.NoError(t, err)
}

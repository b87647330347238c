// Package gps implements the trajectory analyzer: it scores a ride's GPS
// point sequence for spoofing indicators across location anomalies, device
// integrity, route shape, Philippine geofencing and sensor consistency.
package gps

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/richxcame/trust-safety/internal/geo"
	"github.com/richxcame/trust-safety/pkg/models"
)

// Bearing deltas within this tolerance of 0 or 360 degrees count as
// straight-line movement.
const straightBearingToleranceDeg = 10.0

// Sensor cross-check mismatch thresholds.
const (
	accelMismatchThreshold = 5.0 // m/s²
	gyroMismatchThreshold  = 2.0 // rad/s
	magFieldMinNT          = 35000.0
	magFieldMaxNT          = 55000.0
)

// Severity banding for emitted alerts. The medium band starts below the
// default emission threshold on purpose: callers may lower the emission
// threshold independently of the banding.
const (
	severityCriticalAt = 90.0
	severityHighAt     = 75.0
	severityMediumAt   = 60.0
)

// Config holds the tunable thresholds and geofences of the analyzer
type Config struct {
	AlertThreshold       float64 // minimum confidence score to emit an alert
	MaxSpeedKmh          float64 // above this a transition is physically impossible
	MaxTeleportDistanceM float64 // meters covered in under MinUpdateIntervalS = teleport
	MinUpdateIntervalS   float64 // seconds
	CountryBounds        geo.BoundingBox
	ServiceAreas         []geo.BoundingBox
	RestrictedZones      []geo.CircularZone
}

// DefaultConfig returns the Philippines production defaults
func DefaultConfig() Config {
	return Config{
		AlertThreshold:       70,
		MaxSpeedKmh:          200,
		MaxTeleportDistanceM: 10000,
		MinUpdateIntervalS:   2,
		CountryBounds: geo.BoundingBox{
			Name: "Philippines", MinLat: 4.5, MaxLat: 21.5, MinLng: 116.0, MaxLng: 127.0,
		},
		ServiceAreas: []geo.BoundingBox{
			{Name: "Metro Manila", MinLat: 14.35, MaxLat: 14.80, MinLng: 120.90, MaxLng: 121.15},
			{Name: "Cebu City", MinLat: 10.20, MaxLat: 10.45, MinLng: 123.80, MaxLng: 124.05},
			{Name: "Davao City", MinLat: 6.95, MaxLat: 7.35, MinLng: 125.40, MaxLng: 125.70},
		},
		RestrictedZones: []geo.CircularZone{
			{Name: "NAIA Airport", Latitude: 14.5086, Longitude: 121.0194, RadiusMeters: 5000},
			{Name: "Malacañang Palace", Latitude: 14.5958, Longitude: 120.9936, RadiusMeters: 1000},
			{Name: "Camp Aguinaldo", Latitude: 14.6131, Longitude: 121.0706, RadiusMeters: 2000},
		},
	}
}

// mockAppMarkers are substrings of known mock-location tool names.
var mockAppMarkers = []string{
	"fake gps", "fakegps", "mock location", "mock gps",
	"gps joystick", "gps emulator", "location spoofer", "lockito",
}

// emulatorMarkers are build-property values that identify emulated devices.
var emulatorMarkers = []string{"goldfish", "ranchu", "sdk", "emulator", "vbox", "genymotion"}

// Analyzer scores GPS trajectories for spoofing. It is immutable after
// construction and safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer with the given config
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Detect runs all sub-analyses over the ordered point sequence and returns
// the aggregated detection. Unusable input (fewer than two points, or
// timestamps out of ascending order) yields nil: no signal, not an error.
func (a *Analyzer) Detect(rideID string, points []Point, device *DeviceInfo) *Detection {
	if len(points) < 2 {
		return nil
	}
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp < points[i-1].Timestamp {
			return nil
		}
	}

	det := &Detection{RideID: rideID, AnalyzedAt: time.Now()}

	a.analyzeLocationAnomalies(det, points)
	a.analyzeDeviceIndicators(det, device)
	a.analyzeRoutePattern(det, points)
	a.analyzeGeofencing(det, points)
	a.analyzeSensorConsistency(det, points, device)

	det.ConfidenceScore = a.confidenceScore(det)
	return det
}

// AnalyzeRide runs the full trajectory analysis and returns an alert when
// the confidence score clears the alert threshold, or nil when there is no
// signal.
func (a *Analyzer) AnalyzeRide(rideID string, points []Point, device *DeviceInfo, driverID, riderID string) *models.Alert {
	det := a.Detect(rideID, points, device)
	if det == nil || det.ConfidenceScore < a.cfg.AlertThreshold {
		return nil
	}
	return a.buildAlert(det, driverID, riderID)
}

// analyzeLocationAnomalies walks consecutive point pairs looking for
// physically impossible speeds and teleportation jumps.
func (a *Analyzer) analyzeLocationAnomalies(det *Detection, points []Point) {
	transitions := len(points) - 1
	speedViolations := 0

	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		dist := geo.DistanceMeters(prev.Latitude, prev.Longitude, curr.Latitude, curr.Longitude)
		elapsed := float64(curr.Timestamp-prev.Timestamp) / 1000
		speed := geo.SpeedKmh(dist, elapsed)

		flagged := false
		if elapsed > 0 && speed > a.cfg.MaxSpeedKmh {
			speedViolations++
			flagged = true
		}
		if elapsed < a.cfg.MinUpdateIntervalS && dist > a.cfg.MaxTeleportDistanceM {
			det.Teleportation = true
			flagged = true
		}
		if flagged {
			det.Jumps = append(det.Jumps, Jump{
				FromIndex:      i - 1,
				ToIndex:        i,
				DistanceMeters: dist,
				ElapsedSeconds: elapsed,
				SpeedKmh:       speed,
			})
		}
	}

	if float64(speedViolations)/float64(transitions) > 0.05 {
		det.ImpossibleSpeed = true
	}
}

// analyzeDeviceIndicators inspects the optional device telemetry for mock
// tooling, root access, developer options and emulator build properties.
// An emulated device implies a mock location source.
func (a *Analyzer) analyzeDeviceIndicators(det *Detection, device *DeviceInfo) {
	if device == nil {
		return
	}

	det.RootedDevice = device.Rooted
	det.DeveloperOptions = device.DeveloperOptions

	for _, app := range device.InstalledApps {
		name := strings.ToLower(app)
		for _, marker := range mockAppMarkers {
			if strings.Contains(name, marker) {
				det.MockLocationApp = true
			}
		}
	}

	for _, value := range device.BuildProperties {
		v := strings.ToLower(value)
		for _, marker := range emulatorMarkers {
			if strings.Contains(v, marker) {
				det.EmulatorDetected = true
				det.MockLocationApp = true
			}
		}
	}
}

// analyzeRoutePattern studies point triplets: bearing deltas near 0/360
// suggest a synthetic straight-line route, the two-segment-minus-direct
// distance accumulates a deviation proxy, and large adjacent-segment speed
// swings suggest traffic behavior no real road produces.
func (a *Analyzer) analyzeRoutePattern(det *Detection, points []Point) {
	if len(points) < 3 {
		return
	}

	straight := 0
	traffic := 0
	triplets := 0
	var deviation float64

	for i := 0; i+2 < len(points); i++ {
		p0, p1, p2 := points[i], points[i+1], points[i+2]

		b1 := geo.Bearing(p0.Latitude, p0.Longitude, p1.Latitude, p1.Longitude)
		b2 := geo.Bearing(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude)
		delta := math.Abs(b2 - b1)
		if delta < straightBearingToleranceDeg || delta > 360-straightBearingToleranceDeg {
			straight++
		}

		d01 := geo.DistanceMeters(p0.Latitude, p0.Longitude, p1.Latitude, p1.Longitude)
		d12 := geo.DistanceMeters(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude)
		d02 := geo.DistanceMeters(p0.Latitude, p0.Longitude, p2.Latitude, p2.Longitude)
		deviation += d01 + d12 - d02

		t01 := float64(p1.Timestamp-p0.Timestamp) / 1000
		t12 := float64(p2.Timestamp-p1.Timestamp) / 1000
		s01 := geo.SpeedKmh(d01, t01)
		s12 := geo.SpeedKmh(d12, t12)
		if math.Abs(s12-s01) > 50 {
			traffic++
		}

		triplets++
	}

	det.RouteDeviation = deviation
	if float64(straight)/float64(triplets) >= 0.7 {
		det.StraightLineMovement = true
	}
	if float64(traffic)/float64(triplets) >= 0.3 {
		det.UnrealisticTraffic = true
	}
}

// analyzeGeofencing tests every point against the national bounding box and
// the named service areas, and checks proximity to restricted zones.
func (a *Analyzer) analyzeGeofencing(det *Detection, points []Point) {
	outside := 0
	for _, p := range points {
		inCountry := a.cfg.CountryBounds.Contains(p.Latitude, p.Longitude)
		inService := false
		for _, area := range a.cfg.ServiceAreas {
			if area.Contains(p.Latitude, p.Longitude) {
				inService = true
				break
			}
		}
		if !inCountry && !inService {
			outside++
		}
	}
	if float64(outside)/float64(len(points)) > 0.10 {
		det.OutsideServiceArea = true
	}

	for _, zone := range a.cfg.RestrictedZones {
		for _, p := range points {
			if zone.Contains(p.Latitude, p.Longitude) {
				det.RestrictedZones = append(det.RestrictedZones, zone.Name)
				break
			}
		}
	}
}

// analyzeSensorConsistency cross-checks GPS-implied motion against paired
// inertial samples. Runs only when the caller supplied sensor telemetry.
func (a *Analyzer) analyzeSensorConsistency(det *Detection, points []Point, device *DeviceInfo) {
	if device == nil || len(device.SensorSamples) == 0 || len(points) < 3 {
		return
	}

	interior := len(points) - 2
	pairs := len(device.SensorSamples)
	if interior < pairs {
		pairs = interior
	}
	if pairs == 0 {
		return
	}

	accelMismatches := 0
	gyroMismatches := 0
	magAnomalies := 0

	for k := 0; k < pairs; k++ {
		i := k + 1 // interior point index
		sample := device.SensorSamples[k]

		p0, p1, p2 := points[i-1], points[i], points[i+1]
		t01 := float64(p1.Timestamp-p0.Timestamp) / 1000
		t12 := float64(p2.Timestamp-p1.Timestamp) / 1000
		span := (t01 + t12) / 2
		if span <= 0 {
			continue
		}

		d01 := geo.DistanceMeters(p0.Latitude, p0.Longitude, p1.Latitude, p1.Longitude)
		d12 := geo.DistanceMeters(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude)
		v01 := safeDiv(d01, t01)
		v12 := safeDiv(d12, t12)
		impliedAccel := math.Abs(v12-v01) / span
		if math.Abs(impliedAccel-sample.AccelMagnitude) > accelMismatchThreshold {
			accelMismatches++
		}

		b1 := geo.Bearing(p0.Latitude, p0.Longitude, p1.Latitude, p1.Longitude)
		b2 := geo.Bearing(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude)
		deltaDeg := math.Abs(b2 - b1)
		if deltaDeg > 180 {
			deltaDeg = 360 - deltaDeg
		}
		impliedRotation := deltaDeg * math.Pi / 180 / span
		if math.Abs(impliedRotation-sample.GyroMagnitude) > gyroMismatchThreshold {
			gyroMismatches++
		}

		if sample.MagMagnitude < magFieldMinNT || sample.MagMagnitude > magFieldMaxNT {
			magAnomalies++
		}
	}

	if float64(accelMismatches)/float64(pairs) >= 0.2 {
		det.AccelerometerMismatch = true
	}
	if float64(gyroMismatches)/float64(pairs) >= 0.2 {
		det.GyroscopeMismatch = true
	}
	if float64(magAnomalies)/float64(pairs) >= 0.3 {
		det.MagnetometerAnomaly = true
	}
}

// confidenceScore computes the weighted sum of all flags, saturated to
// [0,100]. Raw sums can exceed 100; clipping is intentional saturation.
func (a *Analyzer) confidenceScore(det *Detection) float64 {
	var score float64

	if det.ImpossibleSpeed {
		score += 25
	}
	if det.Teleportation {
		score += 30
	}
	score += math.Min(20, float64(len(det.Jumps))*5)

	if det.MockLocationApp {
		score += 35
	}
	if det.RootedDevice {
		score += 15
	}
	if det.DeveloperOptions {
		score += 10
	}

	if det.StraightLineMovement {
		score += 20
	}
	if det.RouteDeviation > 100 {
		score += 15
	}
	if det.UnrealisticTraffic {
		score += 12
	}

	if det.OutsideServiceArea {
		score += 25
	}
	score += math.Min(15, float64(len(det.RestrictedZones))*5)

	if det.AccelerometerMismatch {
		score += 10
	}
	if det.GyroscopeMismatch {
		score += 8
	}
	if det.MagnetometerAnomaly {
		score += 7
	}

	return models.ClampScore(score)
}

func severityFor(score float64) models.Severity {
	switch {
	case score >= severityCriticalAt:
		return models.SeverityCritical
	case score >= severityHighAt:
		return models.SeverityHigh
	case score >= severityMediumAt:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func (a *Analyzer) buildAlert(det *Detection, driverID, riderID string) *models.Alert {
	alert := models.NewAlert(models.AlertTypeGPSSpoofing, "ride", det.RideID)
	alert.FraudScore = det.ConfidenceScore
	alert.Confidence = det.ConfidenceScore
	alert.Severity = severityFor(det.ConfidenceScore)
	alert.Title = "GPS spoofing suspected"

	desc := fmt.Sprintf("Ride %s shows location manipulation indicators (confidence %.1f)", det.RideID, det.ConfidenceScore)
	if driverID != "" {
		desc += ", driver " + driverID
	}
	if riderID != "" {
		desc += ", rider " + riderID
	}
	alert.Description = desc

	if det.Teleportation {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: "Instantaneous position jump inconsistent with elapsed time",
			Weight:      30,
		})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "teleportation", RiskLevel: models.SeverityCritical})
	}
	if det.ImpossibleSpeed {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: fmt.Sprintf("Speeds above %.0f km/h in more than 5%% of transitions", a.cfg.MaxSpeedKmh),
			Weight:      25,
		})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "impossible_speed", RiskLevel: models.SeverityHigh})
	}
	if n := len(det.Jumps); n > 0 {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: fmt.Sprintf("%d implausible transition(s) recorded", n),
			Weight:      math.Min(20, float64(n)*5),
		})
	}
	if det.MockLocationApp {
		desc := "Known mock-location tooling detected on device"
		if det.EmulatorDetected {
			desc = "Emulator build properties detected; location source is synthetic"
		}
		alert.Evidence = append(alert.Evidence, models.Evidence{Description: desc, Weight: 35})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "mock_location", RiskLevel: models.SeverityCritical})
	}
	if det.RootedDevice {
		alert.Evidence = append(alert.Evidence, models.Evidence{Description: "Device is rooted or jailbroken", Weight: 15})
	}
	if det.DeveloperOptions {
		alert.Evidence = append(alert.Evidence, models.Evidence{Description: "Developer options enabled", Weight: 10})
	}
	if det.StraightLineMovement {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: "Trajectory is a synthetic straight line",
			Weight:      20,
		})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "straight_line_route", RiskLevel: models.SeverityMedium})
	}
	if det.UnrealisticTraffic {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: "Adjacent-segment speed changes inconsistent with real traffic",
			Weight:      12,
		})
	}
	if det.OutsideServiceArea {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: "More than 10% of points fall outside the Philippines service area",
			Weight:      25,
		})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "out_of_service_area", RiskLevel: models.SeverityHigh})
	}
	if n := len(det.RestrictedZones); n > 0 {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: "Ride passed through restricted zone(s): " + strings.Join(det.RestrictedZones, ", "),
			Weight:      math.Min(15, float64(n)*5),
		})
	}
	if det.AccelerometerMismatch || det.GyroscopeMismatch || det.MagnetometerAnomaly {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: "Inertial sensor readings inconsistent with GPS-implied motion",
			Weight:      boolPoints(det.AccelerometerMismatch, 10) + boolPoints(det.GyroscopeMismatch, 8) + boolPoints(det.MagnetometerAnomaly, 7),
		})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "sensor_mismatch", RiskLevel: models.SeverityMedium})
	}

	alert.RiskFactors = []models.RiskFactor{
		{Name: "impossible_speed", Contribution: boolPoints(det.ImpossibleSpeed, 25)},
		{Name: "teleportation", Contribution: boolPoints(det.Teleportation, 30)},
		{Name: "gps_jumps", Contribution: math.Min(20, float64(len(det.Jumps))*5)},
		{Name: "mock_location_app", Contribution: boolPoints(det.MockLocationApp, 35)},
		{Name: "rooted_device", Contribution: boolPoints(det.RootedDevice, 15)},
		{Name: "developer_options", Contribution: boolPoints(det.DeveloperOptions, 10)},
		{Name: "straight_line_movement", Contribution: boolPoints(det.StraightLineMovement, 20)},
		{Name: "route_deviation", Contribution: boolPoints(det.RouteDeviation > 100, 15)},
		{Name: "unrealistic_traffic", Contribution: boolPoints(det.UnrealisticTraffic, 12)},
		{Name: "outside_service_area", Contribution: boolPoints(det.OutsideServiceArea, 25)},
		{Name: "restricted_zones", Contribution: math.Min(15, float64(len(det.RestrictedZones))*5)},
		{Name: "accelerometer_mismatch", Contribution: boolPoints(det.AccelerometerMismatch, 10)},
		{Name: "gyroscope_mismatch", Contribution: boolPoints(det.GyroscopeMismatch, 8)},
		{Name: "magnetometer_anomaly", Contribution: boolPoints(det.MagnetometerAnomaly, 7)},
	}

	return alert
}

func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func boolPoints(b bool, pts float64) float64 {
	if b {
		return pts
	}
	return 0
}

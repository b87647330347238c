package gps

import "time"

// Point is a single GPS fix within a ride. Timestamps are epoch millis.
// A ride's point slice must be ordered by ascending timestamp; the analyzer
// rejects unordered input instead of re-sorting it.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	Bearing   float64 `json:"bearing,omitempty"`
}

// SensorSample is one inertial/magnetic reading paired with the trajectory.
// Magnitudes are vector norms: accelerometer in m/s², gyroscope in rad/s,
// magnetometer in nanotesla.
type SensorSample struct {
	Timestamp      int64   `json:"timestamp"`
	AccelMagnitude float64 `json:"accel_magnitude"`
	GyroMagnitude  float64 `json:"gyro_magnitude"`
	MagMagnitude   float64 `json:"mag_magnitude"`
}

// DeviceInfo carries the optional device-integrity telemetry for a ride
type DeviceInfo struct {
	InstalledApps    []string          `json:"installed_apps,omitempty"`
	Rooted           bool              `json:"rooted"`
	DeveloperOptions bool              `json:"developer_options"`
	BuildProperties  map[string]string `json:"build_properties,omitempty"`
	SensorSamples    []SensorSample    `json:"sensor_samples,omitempty"`
}

// Jump records one implausible transition between consecutive points
type Jump struct {
	FromIndex      int     `json:"from_index"`
	ToIndex        int     `json:"to_index"`
	DistanceMeters float64 `json:"distance_meters"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	SpeedKmh       float64 `json:"speed_kmh"`
}

// Detection aggregates every sub-signal of one trajectory analysis.
// Transient output, never persisted by the analyzer.
type Detection struct {
	RideID string `json:"ride_id"`

	// Location anomalies
	ImpossibleSpeed bool   `json:"impossible_speed"`
	Teleportation   bool   `json:"teleportation"`
	Jumps           []Jump `json:"jumps,omitempty"`

	// Device indicators
	MockLocationApp  bool `json:"mock_location_app"`
	RootedDevice     bool `json:"rooted_device"`
	DeveloperOptions bool `json:"developer_options"`
	EmulatorDetected bool `json:"emulator_detected"`

	// Route pattern
	StraightLineMovement bool    `json:"straight_line_movement"`
	RouteDeviation       float64 `json:"route_deviation"` // meters
	UnrealisticTraffic   bool    `json:"unrealistic_traffic"`

	// Geofencing
	OutsideServiceArea bool     `json:"outside_service_area"`
	RestrictedZones    []string `json:"restricted_zones,omitempty"`

	// Sensor cross-check
	AccelerometerMismatch bool `json:"accelerometer_mismatch"`
	GyroscopeMismatch     bool `json:"gyroscope_mismatch"`
	MagnetometerAnomaly   bool `json:"magnetometer_anomaly"`

	ConfidenceScore float64   `json:"confidence_score"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

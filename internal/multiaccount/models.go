package multiaccount

import (
	"time"

	"github.com/richxcame/trust-safety/internal/geo"
	"github.com/richxcame/trust-safety/internal/similarity"
)

// DeviceFingerprint identifies the hardware and build an account runs on
type DeviceFingerprint struct {
	DeviceID   string `json:"device_id"`
	Model      string `json:"model"`
	Platform   string `json:"platform"`
	OSVersion  string `json:"os_version"`
	AppVersion string `json:"app_version"`
}

// NetworkProfile captures the network footprint observed for an account
type NetworkProfile struct {
	IPAddresses []string `json:"ip_addresses"`
	Carrier     string   `json:"carrier"`
	WifiSSIDs   []string `json:"wifi_ssids"`
}

// BehaviorProfile summarizes how an account uses the platform
type BehaviorProfile struct {
	AvgRidesPerWeek   float64  `json:"avg_rides_per_week"`
	CommonPickupAreas []string `json:"common_pickup_areas"`
	ActiveHours       []int    `json:"active_hours"` // hours of day, 0-23
	AppSessionsPerDay float64  `json:"app_sessions_per_day"`
}

// AccountData is the materialized snapshot of one account, supplied by the
// caller. Optional sections may be nil; absent data degrades the affected
// similarity factor to zero rather than failing the comparison.
type AccountData struct {
	AccountID   string             `json:"account_id"`
	AccountType string             `json:"account_type"` // rider | driver
	FullName    string             `json:"full_name"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	Address     similarity.Address `json:"address"`

	Device  *DeviceFingerprint `json:"device,omitempty"`
	Network *NetworkProfile    `json:"network,omitempty"`

	HomeLocation      *geo.Point  `json:"home_location,omitempty"`
	FrequentLocations []geo.Point `json:"frequent_locations,omitempty"`

	Behavior *BehaviorProfile `json:"behavior,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// SuspectedAccount is a candidate that cleared the similarity threshold.
// Derived fresh on each analysis call, never persisted by the engine.
type SuspectedAccount struct {
	AccountID        string    `json:"account_id"`
	AccountType      string    `json:"account_type"`
	CreationDate     time.Time `json:"creation_date"`
	SimilarityScore  float64   `json:"similarity_score"`
	SharedAttributes []string  `json:"shared_attributes"`
	LastActivity     time.Time `json:"last_activity"`
}

// Detection aggregates every sub-signal of one multi-accounting analysis
type Detection struct {
	AccountID         string             `json:"account_id"`
	SuspectedAccounts []SuspectedAccount `json:"suspected_accounts"`

	// Device sharing
	SharedDevices    []string `json:"shared_devices"`
	DeviceSimilarity float64  `json:"device_similarity"`

	// Network sharing
	SharedIPs          []string `json:"shared_ips"`
	NetworkPatternFlag bool     `json:"network_pattern_flag"`

	// Identity overlap
	NameMatchScore  float64 `json:"name_match_score"`
	PhoneMatch      bool    `json:"phone_match"`
	EmailSimilarity float64 `json:"email_similarity"`
	AddressMatch    float64 `json:"address_match"`

	// Behavioral correlation
	RidePatternFlag   bool    `json:"ride_pattern_flag"`
	TimingCorrelation float64 `json:"timing_correlation"`

	// Geographic overlap
	SharedLocations []geo.Point `json:"shared_locations"`
	ProximityScore  float64     `json:"proximity_score"`

	// Philippines-specific signals
	SharedBarangay bool `json:"shared_barangay"`
	FamilialMatch  bool `json:"familial_match"`

	RiskScore  float64   `json:"risk_score"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AlertType identifies which detector produced an alert
type AlertType string

const (
	AlertTypeMultiAccounting AlertType = "multi_accounting"
	AlertTypeGPSSpoofing     AlertType = "gps_spoofing"
)

// Severity represents alert severity levels
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Status represents the review-workflow state of an alert.
// Detectors always create alerts as StatusActive; all later transitions
// belong to the review workflow, never to the detectors.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
)

// Evidence is a human-readable finding with a numeric weight
type Evidence struct {
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// Pattern is a named behavioral pattern with its risk level
type Pattern struct {
	Name      string   `json:"name"`
	RiskLevel Severity `json:"risk_level"`
}

// RiskFactor is a named contributing factor with its score contribution
type RiskFactor struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
}

// Alert is the bounded, explainable fraud signal shared by both detectors
type Alert struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	AlertType   AlertType    `json:"alert_type"`
	Severity    Severity     `json:"severity"`
	Status      Status       `json:"status"`
	SubjectType string       `json:"subject_type"` // account | ride
	SubjectID   string       `json:"subject_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	FraudScore  float64      `json:"fraud_score"`
	Confidence  float64      `json:"confidence"`
	Evidence    []Evidence   `json:"evidence"`
	Patterns    []Pattern    `json:"patterns"`
	RiskFactors []RiskFactor `json:"risk_factors"`
	Currency    string       `json:"currency"`
	ReviewedBy  string       `json:"reviewed_by,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
}

// NewAlert creates an active alert with a generated ID and PHP currency.
// The ID is the alert type prefix, the creation timestamp in millis and a
// short random suffix, e.g. "gps_spoofing-1717430400000-1a2b3c4d".
func NewAlert(alertType AlertType, subjectType, subjectID string) *Alert {
	now := time.Now()
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return &Alert{
		ID:          fmt.Sprintf("%s-%d-%s", alertType, now.UnixMilli(), suffix),
		Timestamp:   now,
		AlertType:   alertType,
		Status:      StatusActive,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Currency:    "PHP",
	}
}

// ClampScore saturates a raw weighted sum into the [0,100] score range.
// Sums above 100 clip to 100 rather than being renormalized.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Statistics aggregates alert counts over a reporting period
type Statistics struct {
	Period         string `json:"period"`
	TotalAlerts    int64  `json:"total_alerts"`
	CriticalAlerts int64  `json:"critical_alerts"`
	HighAlerts     int64  `json:"high_alerts"`
	MediumAlerts   int64  `json:"medium_alerts"`
	LowAlerts      int64  `json:"low_alerts"`
	ActiveAlerts   int64  `json:"active_alerts"`
	ResolvedAlerts int64  `json:"resolved_alerts"`
}

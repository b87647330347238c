package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAlertDefaults(t *testing.T) {
	alert := NewAlert(AlertTypeGPSSpoofing, "ride", "ride-42")

	assert.True(t, strings.HasPrefix(alert.ID, "gps_spoofing-"))
	assert.Equal(t, StatusActive, alert.Status)
	assert.Equal(t, "ride", alert.SubjectType)
	assert.Equal(t, "ride-42", alert.SubjectID)
	assert.Equal(t, "PHP", alert.Currency)
	assert.False(t, alert.Timestamp.IsZero())
}

func TestNewAlertIDsAreUnique(t *testing.T) {
	a := NewAlert(AlertTypeMultiAccounting, "account", "acc-1")
	b := NewAlert(AlertTypeMultiAccounting, "account", "acc-1")

	assert.NotEqual(t, a.ID, b.ID)
}

func TestClampScoreSaturates(t *testing.T) {
	assert.Equal(t, 100.0, ClampScore(240))
	assert.Equal(t, 0.0, ClampScore(-5))
	assert.Equal(t, 73.5, ClampScore(73.5))
}

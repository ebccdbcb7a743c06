package entities

import (
	"fmt"
	"time"
)

// AlertType is the kind of condition an alert reports
type AlertType string

const (
	AlertSoilMoisture AlertType = "soil_moisture"
	AlertWeather      AlertType = "weather"
	AlertCropYield    AlertType = "crop_yield"
)

// AlertTypes lists every known alert type in display order
var AlertTypes = []AlertType{AlertSoilMoisture, AlertWeather, AlertCropYield}

// ParseAlertType validates a user supplied alert type name
func ParseAlertType(s string) (AlertType, error) {
	for _, t := range AlertTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown alert type %q", s)
}

// Severity grades an alert
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertCandidate is an alert produced by the rule evaluator that is not yet persisted
type AlertCandidate struct {
	LocationID int64
	Type       AlertType
	Severity   Severity
	Message    string
	CreatedAt  time.Time
}

// Alert is a persisted threshold breach.
// IsSent only ever moves from false to true. Message never changes after creation.
type Alert struct {
	ID         int64
	LocationID int64
	Type       AlertType
	Severity   Severity
	Message    string
	IsActive   bool
	IsSent     bool
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

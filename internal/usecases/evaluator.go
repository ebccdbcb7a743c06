// Package usecases contains the application's business logic
package usecases

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abelzeko/farm-alerts/internal/entities"
)

// Thresholds
const (
	SoilMoistureLow   = 15.0  // %
	SoilMoistureHigh  = 35.0  // %
	TemperatureHigh   = 35.0  // °C
	RainfallHeavy     = 50.0  // mm
	CropYieldCritical = 150.0 // kg/ha
)

// EvaluateSoilMoisture checks the latest reading of one soil moisture sensor.
// Values on either boundary raise nothing.
func EvaluateSoilMoisture(loc entities.Location, reading entities.Reading, now time.Time) []entities.AlertCandidate {
	switch {
	case reading.Value < SoilMoistureLow:
		return []entities.AlertCandidate{{
			LocationID: loc.ID,
			Type:       entities.AlertSoilMoisture,
			Severity:   entities.SeverityWarning,
			Message: fmt.Sprintf("Low soil moisture detected at %s: %s%%. Water your crops immediately.",
				loc.Name, formatValue(reading.Value)),
			CreatedAt: now,
		}}
	case reading.Value > SoilMoistureHigh:
		return []entities.AlertCandidate{{
			LocationID: loc.ID,
			Type:       entities.AlertSoilMoisture,
			Severity:   entities.SeverityInfo,
			Message: fmt.Sprintf("High soil moisture detected at %s: %s%%. Consider reducing irrigation.",
				loc.Name, formatValue(reading.Value)),
			CreatedAt: now,
		}}
	}
	return nil
}

// EvaluateWeather checks the latest weather observation of a location.
// Temperature and rainfall rules are independent and may both fire.
func EvaluateWeather(loc entities.Location, w entities.WeatherObservation, now time.Time) []entities.AlertCandidate {
	var out []entities.AlertCandidate

	if w.Temperature > TemperatureHigh {
		out = append(out, entities.AlertCandidate{
			LocationID: loc.ID,
			Type:       entities.AlertWeather,
			Severity:   entities.SeverityWarning,
			Message: fmt.Sprintf("High temperature alert at %s: %s°C. Protect sensitive crops and ensure adequate irrigation.",
				loc.Name, formatValue(w.Temperature)),
			CreatedAt: now,
		})
	}

	if w.Rainfall > RainfallHeavy {
		out = append(out, entities.AlertCandidate{
			LocationID: loc.ID,
			Type:       entities.AlertWeather,
			Severity:   entities.SeverityCritical,
			Message: fmt.Sprintf("Heavy rainfall alert at %s: %smm. Watch for flooding and ensure proper drainage.",
				loc.Name, formatValue(w.Rainfall)),
			CreatedAt: now,
		})
	}

	return out
}

// EvaluateCropYield checks the latest yield prediction of a location
func EvaluateCropYield(loc entities.Location, y entities.YieldPrediction, now time.Time) []entities.AlertCandidate {
	if !y.IsPrediction || y.YieldValue >= CropYieldCritical {
		return nil
	}
	return []entities.AlertCandidate{{
		LocationID: loc.ID,
		Type:       entities.AlertCropYield,
		Severity:   entities.SeverityCritical,
		Message: fmt.Sprintf("Low crop yield prediction for %s: %s kg/ha for %s. Consider soil testing and consultation with agricultural extension officers.",
			loc.Name, formatValue(y.YieldValue), y.CropType),
		CreatedAt: now,
	}}
}

// formatValue prints a measurement with at least one decimal place, so 10 reads as "10.0"
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

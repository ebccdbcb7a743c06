package entities

import (
	"time"
)

// Reading is a single sensor measurement. Append-only.
type Reading struct {
	ID        int64
	SensorID  int64
	Timestamp time.Time
	Value     float64
}

// WeatherObservation is a weather snapshot for a location
type WeatherObservation struct {
	ID          int64
	LocationID  int64
	Timestamp   time.Time
	Temperature float64 // °C
	Humidity    float64 // %
	Rainfall    float64 // mm
	WindSpeed   float64 // km/h
	Description string
}

// YieldPrediction is a crop-yield row. IsPrediction is false for measured yields.
type YieldPrediction struct {
	ID           int64
	LocationID   int64
	Timestamp    time.Time
	CropType     string
	YieldValue   float64 // kg/ha
	IsPrediction bool
}

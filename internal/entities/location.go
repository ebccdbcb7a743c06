// Package entities contains the core domain objects for the farm-alerts application
package entities

import (
	"time"
)

// Location is a monitored site. Readings, alerts and users key off it.
type Location struct {
	ID          int64
	Name        string
	Latitude    float64
	Longitude   float64
	Description string
}

// SensorType tags what a sensor measures
type SensorType string

const (
	SensorSoilMoisture        SensorType = "soil_moisture"
	SensorTemperatureHumidity SensorType = "temperature_humidity"
	SensorOther               SensorType = "other"
)

// Sensor is a device installed at a location. Inactive sensors are never evaluated.
type Sensor struct {
	ID          int64
	Key         string // Hardware identifier, e.g. SM_NorthFarm_001
	LocationID  int64
	Type        SensorType
	InstalledAt time.Time
	IsActive    bool
}

// SensorWithLocation pairs a sensor with the location it belongs to
type SensorWithLocation struct {
	Sensor   Sensor
	Location Location
}

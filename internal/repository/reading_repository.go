package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/abelzeko/farm-alerts/internal/entities"
)

// ReadingRepository gives access to locations, sensors and their time series.
// The Latest* lookups return ok=false when no row exists yet.
type ReadingRepository interface {
	Locations(ctx context.Context) ([]entities.Location, error)
	Location(ctx context.Context, id int64) (entities.Location, error)
	ActiveSensors(ctx context.Context, sensorType entities.SensorType) ([]entities.SensorWithLocation, error)
	LatestSensorReading(ctx context.Context, sensorID int64) (entities.Reading, bool, error)
	LatestWeather(ctx context.Context, locationID int64) (entities.WeatherObservation, bool, error)
	LatestYieldPrediction(ctx context.Context, locationID int64) (entities.YieldPrediction, bool, error)
}

// AddLocation stores a location and returns it with its id
func (s *SQLiteStore) AddLocation(ctx context.Context, loc entities.Location) (entities.Location, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO locations(name, latitude, longitude, description) VALUES(?, ?, ?, ?)`,
		loc.Name, loc.Latitude, loc.Longitude, loc.Description)
	if err != nil {
		return entities.Location{}, storageErr("insert location", err)
	}
	loc.ID, err = res.LastInsertId()
	if err != nil {
		return entities.Location{}, storageErr("insert location", err)
	}
	return loc, nil
}

// AddSensor stores a sensor and returns it with its id
func (s *SQLiteStore) AddSensor(ctx context.Context, sensor entities.Sensor) (entities.Sensor, error) {
	if sensor.InstalledAt.IsZero() {
		sensor.InstalledAt = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sensors(sensor_key, location_id, sensor_type, installed_at, is_active) VALUES(?, ?, ?, ?, ?)`,
		sensor.Key, sensor.LocationID, string(sensor.Type), sensor.InstalledAt.UTC(), sensor.IsActive)
	if err != nil {
		return entities.Sensor{}, storageErr("insert sensor", err)
	}
	sensor.ID, err = res.LastInsertId()
	if err != nil {
		return entities.Sensor{}, storageErr("insert sensor", err)
	}
	return sensor, nil
}

// AddSensorReading appends a reading for a sensor
func (s *SQLiteStore) AddSensorReading(ctx context.Context, r entities.Reading) (entities.Reading, error) {
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sensor_readings(sensor_id, timestamp, value) VALUES(?, ?, ?)`,
		r.SensorID, r.Timestamp.UTC(), r.Value)
	if err != nil {
		return entities.Reading{}, storageErr("insert sensor reading", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return entities.Reading{}, storageErr("insert sensor reading", err)
	}
	return r, nil
}

// AddWeatherObservation appends a weather snapshot for a location
func (s *SQLiteStore) AddWeatherObservation(ctx context.Context, w entities.WeatherObservation) (entities.WeatherObservation, error) {
	if w.Timestamp.IsZero() {
		w.Timestamp = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO weather_data(location_id, timestamp, temperature, humidity, rainfall, wind_speed, description)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		w.LocationID, w.Timestamp.UTC(), w.Temperature, w.Humidity, w.Rainfall, w.WindSpeed, w.Description)
	if err != nil {
		return entities.WeatherObservation{}, storageErr("insert weather observation", err)
	}
	w.ID, err = res.LastInsertId()
	if err != nil {
		return entities.WeatherObservation{}, storageErr("insert weather observation", err)
	}
	return w, nil
}

// AddCropYield appends a crop yield row, predicted or measured
func (s *SQLiteStore) AddCropYield(ctx context.Context, y entities.YieldPrediction) (entities.YieldPrediction, error) {
	if y.Timestamp.IsZero() {
		y.Timestamp = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO crop_yields(location_id, timestamp, crop_type, yield_value, prediction)
		VALUES(?, ?, ?, ?, ?)`,
		y.LocationID, y.Timestamp.UTC(), y.CropType, y.YieldValue, y.IsPrediction)
	if err != nil {
		return entities.YieldPrediction{}, storageErr("insert crop yield", err)
	}
	y.ID, err = res.LastInsertId()
	if err != nil {
		return entities.YieldPrediction{}, storageErr("insert crop yield", err)
	}
	return y, nil
}

// Locations returns every location ordered by id
func (s *SQLiteStore) Locations(ctx context.Context) ([]entities.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude, description FROM locations ORDER BY id`)
	if err != nil {
		return nil, storageErr("query locations", err)
	}
	defer rows.Close()

	var result []entities.Location
	for rows.Next() {
		var loc entities.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.Description); err != nil {
			return nil, storageErr("scan location", err)
		}
		result = append(result, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate locations", err)
	}
	return result, nil
}

// Location returns a single location by id
func (s *SQLiteStore) Location(ctx context.Context, id int64) (entities.Location, error) {
	var loc entities.Location
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, latitude, longitude, description FROM locations WHERE id = ?`, id).
		Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Location{}, ErrNotFound
	}
	if err != nil {
		return entities.Location{}, storageErr("query location", err)
	}
	return loc, nil
}

// ActiveSensors returns the active sensors of a type together with their locations
func (s *SQLiteStore) ActiveSensors(ctx context.Context, sensorType entities.SensorType) ([]entities.SensorWithLocation, error) {
	query := `
		SELECT s.id, s.sensor_key, s.location_id, s.sensor_type, s.installed_at, s.is_active,
		       l.id, l.name, l.latitude, l.longitude, l.description
		FROM sensors s
		JOIN locations l ON l.id = s.location_id
		WHERE s.sensor_type = ? AND s.is_active = 1
		ORDER BY s.id`

	rows, err := s.db.QueryContext(ctx, query, string(sensorType))
	if err != nil {
		return nil, storageErr("query active sensors", err)
	}
	defer rows.Close()

	var result []entities.SensorWithLocation
	for rows.Next() {
		var sw entities.SensorWithLocation
		var typ string
		if err := rows.Scan(
			&sw.Sensor.ID,
			&sw.Sensor.Key,
			&sw.Sensor.LocationID,
			&typ,
			&sw.Sensor.InstalledAt,
			&sw.Sensor.IsActive,
			&sw.Location.ID,
			&sw.Location.Name,
			&sw.Location.Latitude,
			&sw.Location.Longitude,
			&sw.Location.Description,
		); err != nil {
			return nil, storageErr("scan sensor", err)
		}
		sw.Sensor.Type = entities.SensorType(typ)
		result = append(result, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate sensors", err)
	}
	return result, nil
}

// LatestSensorReading returns the most recent reading of a sensor.
// Equal timestamps are broken by insertion order.
func (s *SQLiteStore) LatestSensorReading(ctx context.Context, sensorID int64) (entities.Reading, bool, error) {
	var r entities.Reading
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sensor_id, timestamp, value
		FROM sensor_readings
		WHERE sensor_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`, sensorID).
		Scan(&r.ID, &r.SensorID, &r.Timestamp, &r.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Reading{}, false, nil
	}
	if err != nil {
		return entities.Reading{}, false, storageErr("query latest sensor reading", err)
	}
	return r, true, nil
}

// LatestWeather returns the most recent weather observation of a location
func (s *SQLiteStore) LatestWeather(ctx context.Context, locationID int64) (entities.WeatherObservation, bool, error) {
	var w entities.WeatherObservation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, location_id, timestamp, temperature, humidity, rainfall, wind_speed, description
		FROM weather_data
		WHERE location_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`, locationID).
		Scan(&w.ID, &w.LocationID, &w.Timestamp, &w.Temperature, &w.Humidity, &w.Rainfall, &w.WindSpeed, &w.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.WeatherObservation{}, false, nil
	}
	if err != nil {
		return entities.WeatherObservation{}, false, storageErr("query latest weather", err)
	}
	return w, true, nil
}

// LatestYieldPrediction returns the most recent prediction row of a location,
// whatever its crop type. Measured yields are ignored.
func (s *SQLiteStore) LatestYieldPrediction(ctx context.Context, locationID int64) (entities.YieldPrediction, bool, error) {
	var y entities.YieldPrediction
	err := s.db.QueryRowContext(ctx, `
		SELECT id, location_id, timestamp, crop_type, yield_value, prediction
		FROM crop_yields
		WHERE location_id = ? AND prediction = 1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`, locationID).
		Scan(&y.ID, &y.LocationID, &y.Timestamp, &y.CropType, &y.YieldValue, &y.IsPrediction)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.YieldPrediction{}, false, nil
	}
	if err != nil {
		return entities.YieldPrediction{}, false, storageErr("query latest yield prediction", err)
	}
	return y, true, nil
}

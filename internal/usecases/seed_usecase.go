package usecases

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/abelzeko/farm-alerts/internal/entities"
	"github.com/rs/zerolog"
)

// SeedRepository is the write side used to populate a fresh database
type SeedRepository interface {
	Locations(ctx context.Context) ([]entities.Location, error)
	ActiveSensors(ctx context.Context, sensorType entities.SensorType) ([]entities.SensorWithLocation, error)
	AddLocation(ctx context.Context, loc entities.Location) (entities.Location, error)
	AddSensor(ctx context.Context, sensor entities.Sensor) (entities.Sensor, error)
	AddSensorReading(ctx context.Context, r entities.Reading) (entities.Reading, error)
	AddWeatherObservation(ctx context.Context, w entities.WeatherObservation) (entities.WeatherObservation, error)
	AddCropYield(ctx context.Context, y entities.YieldPrediction) (entities.YieldPrediction, error)
}

// SampleLocations are created by SeedSampleData on an empty database
var SampleLocations = []entities.Location{
	{Name: "Farm A", Latitude: -1.286389, Longitude: 36.817223, Description: "Sample farm near Nairobi"},
	{Name: "Forest B", Latitude: -0.023559, Longitude: 37.906193, Description: "Sample forest site"},
	{Name: "Farm C", Latitude: 0.514277, Longitude: 35.269779, Description: "Sample farm in Eldoret region"},
}

var weatherDescriptions = []string{"Clear", "Rainy", "Stormy", "Cloudy"}

// SeedUseCase populates sample locations and simulated readings for demos
type SeedUseCase struct {
	repo   SeedRepository
	rnd    *rand.Rand
	logger zerolog.Logger
}

// NewSeedUseCase creates a seeder; rnd drives the simulated values
func NewSeedUseCase(repo SeedRepository, rnd *rand.Rand, logger zerolog.Logger) *SeedUseCase {
	return &SeedUseCase{repo: repo, rnd: rnd, logger: logger}
}

// SeedSampleData adds the sample locations with one soil moisture and one
// temperature/humidity sensor each. It does nothing when any location exists.
func (uc *SeedUseCase) SeedSampleData(ctx context.Context) (bool, error) {
	existing, err := uc.repo.Locations(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		uc.logger.Info().Int("locations", len(existing)).Msg("database already seeded")
		return false, nil
	}

	for _, sample := range SampleLocations {
		loc, err := uc.repo.AddLocation(ctx, sample)
		if err != nil {
			return false, fmt.Errorf("seed location %s: %w", sample.Name, err)
		}
		sensors := []entities.Sensor{
			{Key: "SM_" + loc.Name + "_001", LocationID: loc.ID, Type: entities.SensorSoilMoisture, IsActive: true},
			{Key: "TH_" + loc.Name + "_001", LocationID: loc.ID, Type: entities.SensorTemperatureHumidity, IsActive: true},
		}
		for _, s := range sensors {
			if _, err := uc.repo.AddSensor(ctx, s); err != nil {
				return false, fmt.Errorf("seed sensor %s: %w", s.Key, err)
			}
		}
	}

	uc.logger.Info().Int("locations", len(SampleLocations)).Msg("database initialized with sample data")
	return true, nil
}

// Simulate records one random soil reading per active soil sensor and one weather
// observation and yield prediction per location, in the ranges of real field data.
func (uc *SeedUseCase) Simulate(ctx context.Context) error {
	sensors, err := uc.repo.ActiveSensors(ctx, entities.SensorSoilMoisture)
	if err != nil {
		return err
	}
	for _, sw := range sensors {
		if _, err := uc.repo.AddSensorReading(ctx, entities.Reading{SensorID: sw.Sensor.ID, Value: uc.between(5, 35)}); err != nil {
			return fmt.Errorf("simulate soil reading: %w", err)
		}
	}

	locations, err := uc.repo.Locations(ctx)
	if err != nil {
		return err
	}
	for _, loc := range locations {
		obs := entities.WeatherObservation{
			LocationID:  loc.ID,
			Temperature: uc.between(15, 35),
			Humidity:    uc.between(30, 90),
			Rainfall:    uc.between(0, 50),
			WindSpeed:   uc.between(0, 20),
			Description: weatherDescriptions[uc.rnd.IntN(len(weatherDescriptions))],
		}
		if _, err := uc.repo.AddWeatherObservation(ctx, obs); err != nil {
			return fmt.Errorf("simulate weather: %w", err)
		}
		yield := entities.YieldPrediction{LocationID: loc.ID, CropType: "maize", YieldValue: uc.between(100, 400), IsPrediction: true}
		if _, err := uc.repo.AddCropYield(ctx, yield); err != nil {
			return fmt.Errorf("simulate crop yield: %w", err)
		}
	}

	uc.logger.Info().Int("sensors", len(sensors)).Int("locations", len(locations)).Msg("simulated readings recorded")
	return nil
}

// between returns a value in [lo, hi) rounded to two decimals
func (uc *SeedUseCase) between(lo, hi float64) float64 {
	v := lo + uc.rnd.Float64()*(hi-lo)
	return float64(int(v*100)) / 100
}

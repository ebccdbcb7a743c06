package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abelzeko/farm-alerts/internal/entities"
	"github.com/abelzeko/farm-alerts/internal/metrics"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// AlertUseCase runs the threshold checks and hands new alerts to the dispatcher
type AlertUseCase struct {
	readings   repository.ReadingRepository
	alerts     repository.AlertRepository
	dispatcher *Dispatcher
	clock      clockwork.Clock
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewAlertUseCase creates a new alert use case
func NewAlertUseCase(readings repository.ReadingRepository, alerts repository.AlertRepository, dispatcher *Dispatcher,
	clock clockwork.Clock, logger zerolog.Logger, m *metrics.Metrics) *AlertUseCase {
	return &AlertUseCase{
		readings:   readings,
		alerts:     alerts,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
		metrics:    m,
	}
}

// CheckSoilMoisture evaluates the latest reading of every active soil moisture sensor
func (uc *AlertUseCase) CheckSoilMoisture(ctx context.Context) ([]entities.Alert, error) {
	sensors, err := uc.readings.ActiveSensors(ctx, entities.SensorSoilMoisture)
	if err != nil {
		return nil, fmt.Errorf("soil moisture check: %w", err)
	}

	now := uc.clock.Now().UTC()
	var candidates []entities.AlertCandidate
	for _, sw := range sensors {
		reading, ok, err := uc.readings.LatestSensorReading(ctx, sw.Sensor.ID)
		if err != nil {
			return nil, fmt.Errorf("soil moisture check: %w", err)
		}
		if !ok {
			continue
		}
		candidates = append(candidates, EvaluateSoilMoisture(sw.Location, reading, now)...)
	}

	return uc.persist(ctx, "soil_moisture", candidates)
}

// CheckWeather evaluates the latest weather observation of every location
func (uc *AlertUseCase) CheckWeather(ctx context.Context) ([]entities.Alert, error) {
	locations, err := uc.readings.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("weather check: %w", err)
	}

	now := uc.clock.Now().UTC()
	var candidates []entities.AlertCandidate
	for _, loc := range locations {
		obs, ok, err := uc.readings.LatestWeather(ctx, loc.ID)
		if err != nil {
			return nil, fmt.Errorf("weather check: %w", err)
		}
		if !ok {
			continue
		}
		candidates = append(candidates, EvaluateWeather(loc, obs, now)...)
	}

	return uc.persist(ctx, "weather", candidates)
}

// CheckCropYield evaluates the latest yield prediction of every location
func (uc *AlertUseCase) CheckCropYield(ctx context.Context) ([]entities.Alert, error) {
	locations, err := uc.readings.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("crop yield check: %w", err)
	}

	now := uc.clock.Now().UTC()
	var candidates []entities.AlertCandidate
	for _, loc := range locations {
		prediction, ok, err := uc.readings.LatestYieldPrediction(ctx, loc.ID)
		if err != nil {
			return nil, fmt.Errorf("crop yield check: %w", err)
		}
		if !ok {
			continue
		}
		candidates = append(candidates, EvaluateCropYield(loc, prediction, now)...)
	}

	return uc.persist(ctx, "crop_yield", candidates)
}

func (uc *AlertUseCase) persist(ctx context.Context, check string, candidates []entities.AlertCandidate) ([]entities.Alert, error) {
	if len(candidates) == 0 {
		uc.logger.Debug().Str("check", check).Msg("no thresholds crossed")
		return nil, nil
	}

	created, err := uc.alerts.Create(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("%s check: %w", check, err)
	}

	for _, a := range created {
		uc.metrics.AlertsGenerated.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	}
	uc.logger.Info().Str("check", check).Int("alerts", len(created)).Msg("alerts generated")
	return created, nil
}

// RunReport summarizes one evaluate-and-dispatch run
type RunReport struct {
	RunID         string
	SoilAlerts    int
	WeatherAlerts int
	YieldAlerts   int
	Dispatched    bool
	Dispatch      DispatchResult
	DispatchErr   error
}

// Generated is the number of alerts created during the run
func (r RunReport) Generated() int {
	return r.SoilAlerts + r.WeatherAlerts + r.YieldAlerts
}

// Summary renders the run as a human-readable status line
func (r RunReport) Summary() string {
	if r.Generated() == 0 {
		return "No new alerts generated"
	}

	prefix := fmt.Sprintf("Generated %d alerts.", r.Generated())
	switch {
	case errors.Is(r.DispatchErr, ErrTransportInit):
		cause := strings.TrimPrefix(r.DispatchErr.Error(), ErrTransportInit.Error()+": ")
		return fmt.Sprintf("%s Failed to initialize transport: %s", prefix, cause)
	case r.DispatchErr != nil:
		return fmt.Sprintf("%s Dispatch failed: %v", prefix, r.DispatchErr)
	case r.Dispatch.Alerts == 0:
		return prefix + " No new alerts to send"
	default:
		return fmt.Sprintf("%s Sent %d notifications", prefix, r.Dispatch.Sent)
	}
}

// RunAllChecks runs the soil moisture, weather and crop yield checks, then dispatches
// if any alert was created. A storage error aborts the run before dispatch.
func (uc *AlertUseCase) RunAllChecks(ctx context.Context) (RunReport, error) {
	var report RunReport

	soil, err := uc.CheckSoilMoisture(ctx)
	if err != nil {
		return report, err
	}
	report.SoilAlerts = len(soil)

	weather, err := uc.CheckWeather(ctx)
	if err != nil {
		return report, err
	}
	report.WeatherAlerts = len(weather)

	crops, err := uc.CheckCropYield(ctx)
	if err != nil {
		return report, err
	}
	report.YieldAlerts = len(crops)

	if report.Generated() == 0 {
		return report, nil
	}

	report.Dispatched = true
	report.Dispatch, report.DispatchErr = uc.dispatcher.Dispatch(ctx)
	return report, report.DispatchErr
}

// DispatchPending sends alerts left unsent by an earlier run, without evaluating anything
func (uc *AlertUseCase) DispatchPending(ctx context.Context) (DispatchResult, error) {
	return uc.dispatcher.Dispatch(ctx)
}

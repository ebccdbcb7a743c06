package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/abelzeko/farm-alerts/internal/entities"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriber_SetPreference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "farmer@example.com", "4242", "")
	uc := NewSubscriberUseCase(f.store, zerolog.Nop())

	prefs, err := uc.SetPreference(ctx, "4242", entities.AlertWeather, false)
	require.NoError(t, err)
	assert.False(t, prefs.Allows(entities.AlertWeather))

	stored, err := uc.Preferences(ctx, "4242")
	require.NoError(t, err)
	assert.Equal(t, entities.Preferences{entities.AlertWeather: false}, stored)

	// The dispatcher honours what the bot stored.
	f.createAlert(t, entities.AlertWeather, "High temperature")
	result, err := f.dispatcher().Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Suppressed)
}

func TestSubscriber_SetPreferenceReplacesMalformed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "farmer@example.com", "4242", "{{{")
	uc := NewSubscriberUseCase(f.store, zerolog.Nop())

	prefs, err := uc.Preferences(ctx, "4242")
	require.NoError(t, err)
	assert.Empty(t, prefs)

	prefs, err = uc.SetPreference(ctx, "4242", entities.AlertCropYield, false)
	require.NoError(t, err)
	assert.Equal(t, entities.Preferences{entities.AlertCropYield: false}, prefs)
}

func TestSubscriber_SetPreferenceKeepsValidEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "farmer@example.com", "4242", `{"weather": false, "soil_moisture": "off"}`)
	uc := NewSubscriberUseCase(f.store, zerolog.Nop())

	prefs, err := uc.Preferences(ctx, "4242")
	require.NoError(t, err)
	assert.Equal(t, entities.Preferences{entities.AlertWeather: false}, prefs)

	prefs, err = uc.SetPreference(ctx, "4242", entities.AlertCropYield, false)
	require.NoError(t, err)
	assert.Equal(t, entities.Preferences{entities.AlertWeather: false, entities.AlertCropYield: false}, prefs)
}

func TestSubscriber_UnknownContact(t *testing.T) {
	f := newFixture(t)
	uc := NewSubscriberUseCase(f.store, zerolog.Nop())

	_, err := uc.Preferences(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrUnknownSubscriber))
}

func TestSubscriber_ActiveAlertsAndResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "farmer@example.com", "4242", "")
	alert := f.createAlert(t, entities.AlertSoilMoisture, "Low soil moisture detected at North Farm: 10.0%.")

	other, err := f.store.AddLocation(ctx, entities.Location{Name: "South Valley"})
	require.NoError(t, err)
	foreign, err := f.store.Create(ctx, []entities.AlertCandidate{{LocationID: other.ID, Type: entities.AlertWeather, Severity: entities.SeverityCritical, Message: "Heavy rainfall"}})
	require.NoError(t, err)

	uc := NewSubscriberUseCase(f.store, zerolog.Nop())

	loc, alerts, err := uc.ActiveAlerts(ctx, "4242")
	require.NoError(t, err)
	assert.Equal(t, "North Farm", loc.Name)
	require.Len(t, alerts, 1)
	assert.Contains(t, FormatAlerts(loc, alerts), "Low soil moisture")

	assert.True(t, errors.Is(uc.ResolveAlert(ctx, "4242", foreign[0].ID), ErrForeignAlert))
	assert.True(t, errors.Is(uc.ResolveAlert(ctx, "4242", 9999), repository.ErrNotFound))
	require.NoError(t, uc.ResolveAlert(ctx, "4242", alert.ID))

	_, alerts, err = uc.ActiveAlerts(ctx, "4242")
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Equal(t, "No active alerts for North Farm.", FormatAlerts(loc, alerts))
}

func TestFormatPreferences(t *testing.T) {
	out := FormatPreferences(entities.Preferences{entities.AlertWeather: false})
	assert.Contains(t, out, "soil_moisture: on")
	assert.Contains(t, out, "weather: off")
	assert.Contains(t, out, "crop_yield: on")
}

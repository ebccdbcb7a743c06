package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreferences(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check AlertType
		want  bool
	}{
		{"empty allows everything", "", AlertSoilMoisture, true},
		{"whitespace allows everything", "   ", AlertWeather, true},
		{"explicit opt out", `{"soil_moisture": false}`, AlertSoilMoisture, false},
		{"explicit opt in", `{"soil_moisture": true}`, AlertSoilMoisture, true},
		{"absent type allowed", `{"soil_moisture": false}`, AlertWeather, true},
		{"unknown keys ignored", `{"hail": false}`, AlertCropYield, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs, err := ParsePreferences(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, prefs.Allows(tt.check))
		})
	}
}

func TestParsePreferences_Malformed(t *testing.T) {
	for _, raw := range []string{"{not json", `["soil_moisture"]`, `{"weather": "no"}`, `{"weather": null}`} {
		prefs, err := ParsePreferences(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrMalformedPreferences))
		assert.True(t, prefs.Allows(AlertWeather), "malformed preferences must not suppress")
	}
}

func TestParsePreferences_BadValueKeepsOtherEntries(t *testing.T) {
	prefs, err := ParsePreferences(`{"weather": false, "soil_moisture": 1}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPreferences))
	assert.Contains(t, err.Error(), "soil_moisture")

	assert.False(t, prefs.Allows(AlertWeather), "valid opt-out survives a bad sibling entry")
	assert.True(t, prefs.Allows(AlertSoilMoisture))
	assert.Equal(t, Preferences{AlertWeather: false}, prefs)
}

func TestPreferences_EncodeRoundTrip(t *testing.T) {
	prefs := Preferences{AlertWeather: false, AlertCropYield: true}
	decoded, err := ParsePreferences(prefs.Encode())
	require.NoError(t, err)
	assert.Equal(t, prefs, decoded)
}

func TestParseAlertType(t *testing.T) {
	got, err := ParseAlertType("crop_yield")
	require.NoError(t, err)
	assert.Equal(t, AlertCropYield, got)

	_, err = ParseAlertType("frost")
	assert.Error(t, err)
}

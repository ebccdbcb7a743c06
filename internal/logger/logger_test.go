package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := WithRunID(New(&buf, "json"), "run-42")

	l.Info().Str("check", "weather").Msg("alerts generated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-42", entry["run_id"])
	assert.Equal(t, "weather", entry["check"])
	assert.Equal(t, "alerts generated", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "text")
	l.Info().Msg("scheduler started")

	assert.Contains(t, buf.String(), "scheduler started")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Logger = New(&buf, "json")

	l := WithComponent("dispatcher")
	l.Warn().Msg("send failed")
	assert.Contains(t, buf.String(), `"component":"dispatcher"`)
}

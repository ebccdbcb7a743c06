package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abelzeko/farm-alerts/internal/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(readyErr error, status api.StatusFunc) *api.Server {
	if status == nil {
		status = func() (api.RunStatus, bool) { return api.RunStatus{}, false }
	}
	ready := api.ReadinessFunc(func(context.Context) error { return readyErr })
	return api.NewServer(":0", ready, status, zerolog.Nop())
}

func get(t *testing.T, srv *api.Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthzReturns200(t *testing.T) {
	rec, body := get(t, newTestServer(nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	rec, body := get(t, newTestServer(nil, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])

	rec, body = get(t, newTestServer(errors.New("database is closed"), nil), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "database is closed", body["error"])
}

func TestStatus(t *testing.T) {
	rec, body := get(t, newTestServer(nil, nil), "/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no run yet", body["summary"])

	started := time.Date(2025, 4, 18, 8, 0, 0, 0, time.UTC)
	srv := newTestServer(nil, func() (api.RunStatus, bool) {
		return api.RunStatus{RunID: "run-1", StartAt: started, Summary: "Generated 1 alerts. Sent 2 notifications", Sent: 2}, true
	})
	rec, body = get(t, srv, "/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, "2025-04-18T08:00:00Z", body["started_at"])
	assert.Equal(t, "Generated 1 alerts. Sent 2 notifications", body["summary"])
	assert.InDelta(t, 2, body["sent"], 0)
}

func TestMetricsEndpoint(t *testing.T) {
	rec, _ := get(t, newTestServer(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	rec, _ := get(t, newTestServer(nil, nil), "/alerts")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

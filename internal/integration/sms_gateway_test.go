package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMSGateway_Send(t *testing.T) {
	var got smsRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	gw, err := NewSMSGateway(server.URL, "secret", "+15550000", time.Second)
	require.NoError(t, err)
	defer gw.Close()

	require.NoError(t, gw.Send(context.Background(), "+15551234", "Low soil moisture"))
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, smsRequest{From: "+15550000", To: "+15551234", Body: "Low soil moisture"}, got)
}

func TestSMSGateway_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid number", http.StatusBadRequest)
	}))
	defer server.Close()

	gw, err := NewSMSGateway(server.URL, "", "", time.Second)
	require.NoError(t, err)

	err = gw.Send(context.Background(), "bogus", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "invalid number")
}

func TestSMSGateway_RespectsContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	gw, err := NewSMSGateway(server.URL, "", "", 5*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = gw.Send(ctx, "+15551234", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewSMSGateway_RequiresURL(t *testing.T) {
	_, err := NewSMSGateway("", "token", "", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMS_GATEWAY_URL")
}

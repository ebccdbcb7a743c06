package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTelegramServer answers getMe and sendMessage like the Bot API
func mockTelegramServer(t *testing.T, sent *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Farm","username":"farm_alerts_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			*sent = append(*sent, r.FormValue("chat_id")+":"+r.FormValue("text"))
			w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":4242,"type":"private"}}}`))
		default:
			w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		}
	}))
}

func TestTelegramSender_Send(t *testing.T) {
	var sent []string
	server := mockTelegramServer(t, &sent)
	defer server.Close()

	sender, err := NewTelegramSender("123:abc", server.URL+"/bot%s/%s", time.Second, zerolog.Nop())
	require.NoError(t, err)
	defer sender.Close()

	require.NoError(t, sender.Send(context.Background(), "4242", "Heavy rainfall"))
	assert.Equal(t, []string{"4242:Heavy rainfall"}, sent)
}

func TestTelegramSender_InvalidChatID(t *testing.T) {
	var sent []string
	server := mockTelegramServer(t, &sent)
	defer server.Close()

	sender, err := NewTelegramSender("123:abc", server.URL+"/bot%s/%s", time.Second, zerolog.Nop())
	require.NoError(t, err)

	for _, dest := range []string{"+254700000001", "+15551234", "", "42a", " 4242", "--5"} {
		err = sender.Send(context.Background(), dest, "Low soil moisture")
		require.Error(t, err, dest)
		assert.Contains(t, err.Error(), "invalid telegram chat id")
	}
	assert.Empty(t, sent)
}

func TestTelegramSender_GroupChatID(t *testing.T) {
	var sent []string
	server := mockTelegramServer(t, &sent)
	defer server.Close()

	sender, err := NewTelegramSender("123:abc", server.URL+"/bot%s/%s", time.Second, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), "-1001234567890", "Heavy rainfall"))
	assert.Equal(t, []string{"-1001234567890:Heavy rainfall"}, sent)
}

func TestNewTelegramSender_Errors(t *testing.T) {
	_, err := NewTelegramSender("", "", time.Second, zerolog.Nop())
	require.Error(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	_, err = NewTelegramSender("bad", server.URL+"/bot%s/%s", time.Second, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create bot")
}

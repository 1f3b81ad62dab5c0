package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"socialhub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *ResendSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewResendSender("re_test", "noreply@example.com")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	s.client.BaseURL = base
	return s
}

func TestResendSender_Success(t *testing.T) {
	var got map[string]any
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	})

	ok := s.Send(context.Background(), "user@example.com", "Hello", "<p>hi</p>")
	assert.True(t, ok)
	assert.Equal(t, "noreply@example.com", got["from"])
	assert.Equal(t, []any{"user@example.com"}, got["to"])
	assert.Equal(t, "<p>hi</p>", got["html"])
}

func TestResendSender_FailureReturnsFalse(t *testing.T) {
	s := newTestSender(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"bad from"}`))
	})

	assert.False(t, s.Send(context.Background(), "user@example.com", "Hello", "<p>hi</p>"))
}

func TestNewSender_FallsBackToLog(t *testing.T) {
	s := NewSender(&config.Config{})
	_, isLog := s.(LogSender)
	assert.True(t, isLog)
	assert.True(t, s.Send(context.Background(), "a@b.c", "s", "h"))

	s = NewSender(&config.Config{ResendAPIKey: "re_x", ResendFromEmail: "a@b.c"})
	_, isResend := s.(*ResendSender)
	assert.True(t, isResend)
}

func TestRecoveryCodeMessage(t *testing.T) {
	subject, html, err := RecoveryCodeMessage("Social <App>", "123456", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "Social <App> password reset code", subject)
	assert.Contains(t, html, "123456")
	assert.Contains(t, html, "15 minutes")
	assert.Contains(t, html, "Social &lt;App&gt;")
}

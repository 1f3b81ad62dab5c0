package server

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flagsResponse struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
}

func TestGetFeatureFlags(t *testing.T) {
	cfg := testConfig(t)
	cfg.FeatureFlags = "post_images=on,legacy_feed=off,threaded_replies=100%,canary=0%"
	ts := newTestServerWithConfig(t, cfg)

	t.Run("anonymous", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/feature-flags", nil, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decodeBody[flagsResponse](t, resp)
		assert.Len(t, body.Raw, 4)
		assert.True(t, body.Evaluated["post_images"])
		assert.True(t, body.Evaluated["threaded_replies"])
		assert.False(t, body.Evaluated["legacy_feed"])
		assert.False(t, body.Evaluated["canary"])
	})

	t.Run("signed in", func(t *testing.T) {
		s := ts.signup(t, "flagger")
		resp := ts.do(t, http.MethodGet, "/feature-flags", nil, s.token)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decodeBody[flagsResponse](t, resp)
		assert.Equal(t, "on", body.Raw["post_images"])
		assert.True(t, body.Evaluated["threaded_replies"])
	})
}

func TestGetFeatureFlags_NoneConfigured(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/feature-flags", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody[flagsResponse](t, resp)
	assert.Empty(t, body.Raw)
	assert.Empty(t, body.Evaluated)
}

package server

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestProductionCookieIsSecure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	ts := newTestServerWithConfig(t, cfg)

	cookie := sessionCookie(ts.do(t, http.MethodPost, "/auth/register", registerRequest{
		Email: "p@example.com", Password: "secret123", Name: "Prod", Username: "produser",
	}, ""))
	if assert.NotNil(t, cookie) {
		assert.True(t, cookie.Secure)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, errorBody(t, resp).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierStub struct {
	sessions map[string]*Session
}

func (v verifierStub) Verify(_ context.Context, token string) (*Session, error) {
	if s, ok := v.sessions[token]; ok {
		return s, nil
	}
	return nil, errors.New("invalid token")
}

func TestAuthRequired(t *testing.T) {
	userID := uuid.New()
	verifier := verifierStub{sessions: map[string]*Session{
		"good": {UserID: userID, Email: "a@b.test", TokenID: "jti-1"},
	}}

	app := fiber.New()
	app.Get("/test", AuthRequired(verifier), func(c *fiber.Ctx) error {
		id, ok := CurrentUserID(c)
		require.True(t, ok)
		ctxID, _ := c.UserContext().Value(UserIDKey).(uuid.UUID)
		return c.JSON(fiber.Map{"userID": id, "ctxUserID": ctxID})
	})

	tests := []struct {
		name           string
		cookie         string
		authHeader     string
		expectedStatus int
	}{
		{name: "Cookie", cookie: "good", expectedStatus: http.StatusOK},
		{name: "Bearer Fallback", authHeader: "Bearer good", expectedStatus: http.StatusOK},
		{name: "Cookie Wins Over Header", cookie: "good", authHeader: "Bearer bad", expectedStatus: http.StatusOK},
		{name: "Missing Token", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid Format", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid Token", cookie: "bad", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, userID.String(), body["userID"])
				assert.Equal(t, userID.String(), body["ctxUserID"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	userID := uuid.New()
	verifier := verifierStub{sessions: map[string]*Session{"good": {UserID: userID}}}

	app := fiber.New()
	app.Get("/feed", OptionalAuth(verifier), func(c *fiber.Ctx) error {
		_, ok := CurrentUserID(c)
		return c.JSON(fiber.Map{"authenticated": ok})
	})

	for _, tc := range []struct {
		token string
		want  bool
	}{{"good", true}, {"bad", false}, {"", false}} {
		req := httptest.NewRequest(http.MethodGet, "/feed", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, tc.want, body["authenticated"], "token %q", tc.token)
	}
}

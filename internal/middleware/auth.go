// Package middleware provides request logging, session authentication, rate limiting
// and tracing middleware for the HTTP server.
package middleware

import (
	"context"
	"strings"

	"socialhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "access_token"

// Session is the authenticated identity extracted from a token.
type Session struct {
	UserID  uuid.UUID
	Email   string
	TokenID string
}

// SessionVerifier validates a raw session token, including revocation.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*Session, error)
}

// TokenFromRequest returns the session token from the cookie, falling back to
// an "Authorization: Bearer" header.
func TokenFromRequest(c *fiber.Ctx) string {
	if token := strings.TrimSpace(c.Cookies(SessionCookieName)); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthRequired rejects requests without a valid session and stores the user id
// in c.Locals("userID") and in the request context.
func AuthRequired(v SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}

		session, err := v.Verify(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		setSession(c, session)
		return c.Next()
	}
}

// OptionalAuth attaches the session when a valid token is present and never rejects.
func OptionalAuth(v SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := TokenFromRequest(c); token != "" {
			if session, err := v.Verify(c.UserContext(), token); err == nil {
				setSession(c, session)
			}
		}
		return c.Next()
	}
}

func setSession(c *fiber.Ctx, s *Session) {
	c.Locals("userID", s.UserID)
	c.Locals("session", s)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, s.UserID))
}

// CurrentUserID returns the authenticated user id set by AuthRequired or OptionalAuth.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals("userID").(uuid.UUID)
	return id, ok
}

// CurrentSession returns the verified session, if any.
func CurrentSession(c *fiber.Ctx) (*Session, bool) {
	s, ok := c.Locals("session").(*Session)
	return s, ok
}

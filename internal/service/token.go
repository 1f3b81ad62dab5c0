package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socialhub/internal/config"
	"socialhub/internal/middleware"
	"socialhub/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionTTL is the lifetime of a session token and of its cookie.
const SessionTTL = time.Hour

const revokedKeyPrefix = "blacklist:"

// ErrTokenRevoked is returned by Verify for a token revoked at logout.
var ErrTokenRevoked = errors.New("token has been revoked")

// TokenManager issues and verifies HS256 session tokens. Revocation is kept in
// Redis; without a client, tokens simply live until they expire.
type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	rdb      *redis.Client
	now      func() time.Time
}

func NewTokenManager(cfg *config.Config, rdb *redis.Client) *TokenManager {
	return &TokenManager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		rdb:      rdb,
		now:      time.Now,
	}
}

// Issue signs a token for user with subject id, email and a random jti.
func (m *TokenManager) Issue(user *models.User) (string, error) {
	now := m.now()
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iss":   m.issuer,
		"aud":   m.audience,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(SessionTTL).Unix(),
		"jti":   jti,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, time claims, issuer and audience. It does not
// consult the revocation list.
func (m *TokenManager) Parse(tokenString string) (*middleware.Session, time.Time, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, time.Time{}, err
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, time.Time{}, err
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid subject: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, time.Time{}, errors.New("missing exp claim")
	}

	email, _ := claims["email"].(string)
	jti, _ := claims["jti"].(string)
	return &middleware.Session{UserID: userID, Email: email, TokenID: jti}, exp.Time, nil
}

// Verify implements middleware.SessionVerifier.
func (m *TokenManager) Verify(ctx context.Context, tokenString string) (*middleware.Session, error) {
	session, _, err := m.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if session.TokenID == "" || m.rdb == nil {
		return session, nil
	}

	revoked, err := m.rdb.Exists(ctx, revokedKeyPrefix+session.TokenID).Result()
	if err != nil {
		// Redis outage does not lock every user out.
		middleware.Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		return session, nil
	}
	if revoked > 0 {
		return nil, ErrTokenRevoked
	}
	return session, nil
}

// Revoke blacklists the token's jti until the token would have expired anyway.
// Invalid or already expired tokens are ignored.
func (m *TokenManager) Revoke(ctx context.Context, tokenString string) error {
	if m.rdb == nil || tokenString == "" {
		return nil
	}
	session, exp, err := m.Parse(tokenString)
	if err != nil || session.TokenID == "" {
		return nil
	}
	ttl := exp.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	if err := m.rdb.Set(ctx, revokedKeyPrefix+session.TokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

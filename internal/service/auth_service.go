// Package service implements the application's business rules on top of the repositories.
package service

import (
	"context"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
	"socialhub/internal/validation"

	"github.com/google/uuid"
)

const invalidCredentials = "Invalid credentials"

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Username string
}

// AuthResult is a freshly issued session and the user it belongs to.
type AuthResult struct {
	Token string
	User  models.PublicUser
}

// UniquenessResult answers a field availability probe.
type UniquenessResult struct {
	IsUnique bool   `json:"isUnique"`
	Message  string `json:"message,omitempty"`
}

type AuthService struct {
	users  repository.UserRepository
	tokens *TokenManager
}

func NewAuthService(users repository.UserRepository, tokens *TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user, err := createAccount(ctx, s.users, in)
	if err != nil {
		observability.RecordAuth("register", observability.OutcomeFailure)
		return nil, err
	}
	observability.RecordAuth("register", observability.OutcomeSuccess)
	return s.issue(user)
}

// Login authenticates by email and password. Every failure yields the same
// Unauthorized message so callers cannot probe for registered emails.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		checkDecoy(password)
		observability.RecordAuth("login", observability.OutcomeDenied)
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	if !checkPassword(user.Password, password) {
		observability.RecordAuth("login", observability.OutcomeDenied)
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	observability.RecordAuth("login", observability.OutcomeSuccess)
	return s.issue(user)
}

// Me returns the public view of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

// Logout revokes the token so it cannot be replayed before it expires.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	observability.RecordAuth("logout", observability.OutcomeSuccess)
	return s.tokens.Revoke(ctx, token)
}

// ValidateFieldUniqueness reports whether no user already holds value for field,
// compared case-insensitively.
func (s *AuthService) ValidateFieldUniqueness(ctx context.Context, field validation.UniqueField, value string) (*UniquenessResult, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, models.NewValidationError("Value is required")
	}

	var (
		existing *models.User
		label    string
		err      error
	)
	switch field {
	case validation.FieldEmail:
		label = "Email"
		existing, err = s.users.GetByEmail(ctx, value)
	case validation.FieldUsername:
		label = "Username"
		existing, err = s.users.GetByUsername(ctx, value)
	default:
		return nil, models.NewValidationError("Field must be one of: email, username")
	}
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return &UniquenessResult{IsUnique: false, Message: label + " is already taken"}, nil
	}
	return &UniquenessResult{IsUnique: true, Message: label + " is available"}, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// createAccount validates, checks uniqueness, hashes and persists a new user.
// Shared by registration and POST /users.
func createAccount(ctx context.Context, users repository.UserRepository, in RegisterInput) (*models.User, error) {
	email := validation.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	name := strings.TrimSpace(in.Name)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}
	existing, err = users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already taken")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Username: username,
		Name:     &name,
		Password: hash,
	}
	// The unique indexes still decide a race between two registrations.
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"socialhub/internal/email"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
	"socialhub/internal/validation"
)

const (
	// ResetCodeTTL is how long an issued recovery code stays valid.
	ResetCodeTTL = 15 * time.Minute

	resetCodeMin = 100000
	resetCodeMax = 999999

	// ForgotPasswordMessage is returned whether or not the email is registered.
	ForgotPasswordMessage = "If an account with that email exists, a password reset code has been sent."
	invalidCodeMessage    = "Invalid or expired code"
)

type ResetPasswordInput struct {
	Email           string
	Code            string
	NewPassword     string
	ConfirmPassword string
}

// RecoveryService runs the password recovery flow. A code is issued, may be
// verified any number of times, and is consumed by a successful reset. Only the
// newest unused code matching the submitted digits is considered.
type RecoveryService struct {
	users   repository.UserRepository
	codes   repository.ResetCodeRepository
	mailer  email.Sender
	appName string
	now     func() time.Time
	newCode func() (string, error)
}

func NewRecoveryService(
	users repository.UserRepository,
	codes repository.ResetCodeRepository,
	mailer email.Sender,
	appName string,
) *RecoveryService {
	return &RecoveryService{
		users:   users,
		codes:   codes,
		mailer:  mailer,
		appName: appName,
		now:     time.Now,
		newCode: generateResetCode,
	}
}

// ForgotPassword issues and mails a code when the email is registered. The
// returned message never reveals whether it is.
func (s *RecoveryService) ForgotPassword(ctx context.Context, emailAddr string) (string, error) {
	addr := validation.NormalizeEmail(emailAddr)
	if err := validation.ValidateEmail(addr); err != nil {
		return "", models.NewValidationError(err.Error())
	}

	user, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		return "", err
	}
	if user == nil {
		observability.RecordAuth("forgot_password", observability.OutcomeDenied)
		return ForgotPasswordMessage, nil
	}

	code, err := s.newCode()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	rc := &models.PasswordResetCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: s.now().Add(ResetCodeTTL),
	}
	if err := s.codes.Create(ctx, rc); err != nil {
		return "", err
	}

	subject, html, err := email.RecoveryCodeMessage(s.appName, code, ResetCodeTTL)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to render recovery email", slog.String("error", err.Error()))
		return ForgotPasswordMessage, nil
	}
	if !s.mailer.Send(ctx, user.Email, subject, html) {
		middleware.Logger.WarnContext(ctx, "recovery email not delivered", slog.String("user_id", user.ID.String()))
	}
	observability.RecordAuth("forgot_password", observability.OutcomeSuccess)
	return ForgotPasswordMessage, nil
}

// VerifyCode checks a code without consuming it.
func (s *RecoveryService) VerifyCode(ctx context.Context, emailAddr, code string) error {
	user, err := s.lookupUser(ctx, emailAddr)
	if err != nil {
		return err
	}
	_, err = s.validCode(ctx, user, code)
	return err
}

// ResetPassword checks the confirmation, the user and the code in that order,
// then stores the new hash and consumes the code atomically.
func (s *RecoveryService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return models.NewValidationError("Passwords do not match")
	}
	user, err := s.lookupUser(ctx, in.Email)
	if err != nil {
		return err
	}
	rc, err := s.validCode(ctx, user, in.Code)
	if err != nil {
		return err
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.codes.ConsumeAndSetPassword(ctx, rc.ID, user.ID, hash); err != nil {
		observability.RecordAuth("reset_password", observability.OutcomeFailure)
		return err
	}
	observability.RecordAuth("reset_password", observability.OutcomeSuccess)
	return nil
}

func (s *RecoveryService) lookupUser(ctx context.Context, emailAddr string) (*models.User, error) {
	addr := validation.NormalizeEmail(emailAddr)
	user, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &models.AppError{Code: models.CodeNotFound, Message: "User not found"}
	}
	return user, nil
}

func (s *RecoveryService) validCode(ctx context.Context, user *models.User, code string) (*models.PasswordResetCode, error) {
	if validation.ValidateResetCode(code) != nil {
		return nil, models.NewValidationError(invalidCodeMessage)
	}
	rc, err := s.codes.FindLatestUnused(ctx, user.ID, code)
	if err != nil {
		return nil, err
	}
	if rc == nil || rc.Expired(s.now()) {
		return nil, models.NewValidationError(invalidCodeMessage)
	}
	return rc, nil
}

// generateResetCode draws a six digit code uniformly from [100000, 999999].
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeMax-resetCodeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+resetCodeMin, 10), nil
}

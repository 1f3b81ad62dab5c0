package repository

import (
	"context"
	"errors"
	"time"

	"socialhub/internal/models"
	"socialhub/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResetCodeRepository stores password recovery codes.
type ResetCodeRepository interface {
	Create(ctx context.Context, code *models.PasswordResetCode) error
	// FindLatestUnused returns the most recently created unused code for the
	// user matching code, expired or not, or (nil, nil) when none exists.
	FindLatestUnused(ctx context.Context, userID uuid.UUID, code string) (*models.PasswordResetCode, error)
	// ConsumeAndSetPassword marks the code used and stores the new password hash
	// in one transaction.
	ConsumeAndSetPassword(ctx context.Context, codeID, userID uuid.UUID, passwordHash string) error
	// PurgeStale deletes codes that are used or expired before cutoff.
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type resetCodeRepository struct {
	db *gorm.DB
}

func NewResetCodeRepository(db *gorm.DB) ResetCodeRepository {
	return &resetCodeRepository{db: db}
}

func (r *resetCodeRepository) Create(ctx context.Context, code *models.PasswordResetCode) error {
	defer observability.TrackQuery("insert", "password_reset_codes")()
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *resetCodeRepository) FindLatestUnused(ctx context.Context, userID uuid.UUID, code string) (*models.PasswordResetCode, error) {
	defer observability.TrackQuery("select", "password_reset_codes")()
	var rc models.PasswordResetCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND used = ?", userID, code, false).
		Order("created_at DESC").
		First(&rc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &rc, nil
}

func (r *resetCodeRepository) ConsumeAndSetPassword(ctx context.Context, codeID, userID uuid.UUID, passwordHash string) error {
	defer observability.TrackQuery("update", "password_reset_codes")()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// used = false in the predicate makes a concurrent second reset lose.
		res := tx.Model(&models.PasswordResetCode{}).
			Where("id = ? AND used = ?", codeID, false).
			Update("used", true)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewValidationError("Invalid or expired code")
		}

		res = tx.Model(&models.User{}).Where("id = ?", userID).Update("password", passwordHash)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", userID)
		}
		return nil
	})
}

func (r *resetCodeRepository) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	defer observability.TrackQuery("delete", "password_reset_codes")()
	res := r.db.WithContext(ctx).
		Where("used = ? OR expires_at < ?", true, cutoff).
		Delete(&models.PasswordResetCode{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

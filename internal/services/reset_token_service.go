package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/logger"
	"grindsheet/internal/models"
)

// resetTokenBytes is the entropy of a reset token (256 bits).
const resetTokenBytes = 32

// ResetTokenOptions configures the reset token lifecycle.
type ResetTokenOptions struct {
	// TTL is how long an issued token stays usable.
	TTL time.Duration
	// SingleActive deletes the email's earlier tokens whenever a new one is issued.
	SingleActive bool
	// PasswordMinLength applies to the new password on reset.
	PasswordMinLength int
}

// resetTokenService stores reset tokens by SHA-256 digest.
type resetTokenService struct {
	db   *gorm.DB
	opts ResetTokenOptions
	now  func() time.Time
}

// NewResetTokenService creates a new ResetTokenServicer.
func NewResetTokenService(db *gorm.DB, opts ResetTokenOptions) ResetTokenServicer {
	return &resetTokenService{db: db, opts: opts, now: time.Now}
}

func (s *resetTokenService) clock() time.Time {
	return s.now().UTC()
}

// Create issues a new random token for email, valid for the configured TTL.
func (s *resetTokenService) Create(ctx context.Context, email string) (string, error) {
	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	token := hex.EncodeToString(raw)

	row := &models.ResetToken{
		TokenHash: hashToken(token),
		Email:     normalizeEmail(email),
		ExpiresAt: s.clock().Add(s.opts.TTL),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.opts.SingleActive {
			if err := tx.Where("email = ?", row.Email).Delete(&models.ResetToken{}).Error; err != nil {
				return err
			}
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return token, nil
}

// Verify returns the email a token was issued for. An expired token is
// deleted as it is detected.
func (s *resetTokenService) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.ErrInvalidResetToken
	}
	db := s.db.WithContext(ctx)

	var row models.ResetToken
	if err := db.Where("token_hash = ?", hashToken(token)).First(&row).Error; err != nil {
		if isNotFound(err) {
			return "", apperrors.ErrInvalidResetToken
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if row.Expired(s.clock()) {
		if err := db.Where("token_hash = ?", row.TokenHash).Delete(&models.ResetToken{}).Error; err != nil {
			logger.Get().Warnw("failed to delete expired reset token", "error", err)
		}
		return "", apperrors.ErrResetTokenExpired
	}
	return row.Email, nil
}

// Consume deletes a token. Consuming an unknown or already consumed token fails.
func (s *resetTokenService) Consume(ctx context.Context, token string) error {
	res := s.db.WithContext(ctx).Where("token_hash = ?", hashToken(token)).Delete(&models.ResetToken{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInvalidResetToken
	}
	return nil
}

// ResetPassword runs the reset workflow: verify the token, then consume it and
// replace the password hash in one transaction. It returns the affected email.
// If the user no longer exists the token survives.
func (s *resetTokenService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" || newPassword == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Token and password are required")
	}
	if err := checkPasswordLength(newPassword, s.opts.PasswordMinLength); err != nil {
		return "", err
	}

	email, err := s.Verify(ctx, token)
	if err != nil {
		return "", err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token_hash = ? AND expires_at > ?", hashToken(token), s.clock()).Delete(&models.ResetToken{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		// Consumed by a concurrent reset, or expired since Verify.
		if res.RowsAffected == 0 {
			return apperrors.ErrInvalidResetToken
		}
		return updatePasswordHash(tx, email, hash)
	})
	if err != nil {
		return "", err
	}
	return email, nil
}

// PurgeExpired deletes every expired token and reports how many were removed.
func (s *resetTokenService) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.clock()).Delete(&models.ResetToken{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}

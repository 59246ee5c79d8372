package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/models"
)

// passwordHashCost is the bcrypt work factor for every stored password.
const passwordHashCost = 10

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// normalizeEmail trims and lower-cases an email so it can serve as a key.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPasswordLength(password string, minLength int) error {
	if utf8.RuneCountInString(password) < minLength {
		return apperrors.WithMessage(apperrors.ErrPasswordTooShort,
			fmt.Sprintf("Password must be at least %d characters", minLength))
	}
	// bcrypt rejects inputs longer than 72 bytes.
	if len(password) > 72 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Password must be at most 72 bytes")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burnPasswordCheck spends one bcrypt comparison so unknown emails take as
// long to reject as wrong passwords.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("grindsheet-timing-equalizer"), passwordHashCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// updatePasswordHash replaces a user's hash in place.
func updatePasswordHash(tx *gorm.DB, email, hash string) error {
	res := tx.Model(&models.User{}).Where("email = ?", email).Update("password_hash", hash)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// hashToken returns the SHA-256 hex digest of a token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

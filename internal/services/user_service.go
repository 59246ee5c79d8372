package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/models"
)

// userService is the credential store.
type userService struct {
	db                *gorm.DB
	passwordMinLength int
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, passwordMinLength int) UserServicer {
	return &userService{db: db, passwordMinLength: passwordMinLength}
}

// Register creates a user. Missing fields, a short password, or an email that
// is already registered are rejected.
func (s *userService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "All fields are required")
	}
	if err := checkPasswordLength(password, s.passwordMinLength); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrUserExists
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := db.Create(user).Error; err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUserExists
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords return
// the same ErrInvalidCredentials.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			burnPasswordCheck(password)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !passwordMatches(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ResetPassword replaces the stored hash for email.
func (s *userService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if err := checkPasswordLength(newPassword, s.passwordMinLength); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return updatePasswordHash(s.db.WithContext(ctx), normalizeEmail(email), hash)
}

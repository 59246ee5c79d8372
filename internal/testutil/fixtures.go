package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"grindsheet/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		Name:         "Test Player",
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestResetToken stores a reset token for email with the given expiry
// and returns the raw token.
func CreateTestResetToken(t *testing.T, db *gorm.DB, email string, expiresAt time.Time) string {
	t.Helper()

	token := fmt.Sprintf("%064x", nextID())
	sum := sha256.Sum256([]byte(token))
	row := &models.ResetToken{
		TokenHash: hex.EncodeToString(sum[:]),
		Email:     email,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("failed to create test reset token: %v", err)
	}
	return token
}

// CountResetTokens returns how many reset tokens are stored for email.
func CountResetTokens(t *testing.T, db *gorm.DB, email string) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&models.ResetToken{}).Where("email = ?", email).Count(&n).Error; err != nil {
		t.Fatalf("failed to count reset tokens: %v", err)
	}
	return n
}

// SampleSession returns a valid poker session.
func SampleSession() models.PokerSession {
	return models.PokerSession{
		Date:     "2024-01-15",
		Duration: 4.5,
		BuyIn:    200,
		CashOut:  350.5,
		Notes:    "Friday home game",
	}
}

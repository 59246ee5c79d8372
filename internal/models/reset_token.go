package models

import "time"

// ResetToken is an issued password-reset grant. Only the SHA-256 digest of the
// token handed to the user is stored.
type ResetToken struct {
	TokenHash string    `gorm:"primaryKey;size:64"`
	Email     string    `gorm:"size:255;not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// Expired reports whether the token is no longer usable at now. A token
// stops being usable at the instant it reaches ExpiresAt.
func (t *ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

package models

import "time"

// User is a registered account. The email is the identity and primary key.
type User struct {
	Email        string    `gorm:"primaryKey;size:255" json:"email"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

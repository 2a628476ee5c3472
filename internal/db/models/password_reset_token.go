package models

import (
	"time"

	"gorm.io/gorm"
)

// PasswordResetToken is a single-use, time-bounded token mailed to a user
// who asked to reset their password.
type PasswordResetToken struct {
	gorm.Model
	Token     string `gorm:"uniqueIndex;not null;size:200"`
	UserID    uint   `gorm:"not null;index"`
	User      *User
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null;default:false"`
}

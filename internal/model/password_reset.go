package model

import "time"

type PasswordReset struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    uint      `gorm:"index;not null"`
	Token     string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// Expired reports whether the token can no longer be redeemed at t.
func (p *PasswordReset) Expired(t time.Time) bool {
	return !t.Before(p.ExpiresAt)
}

// Package model defines database models
package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	Username     string  `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string  `gorm:"not null" json:"-"`
	FullName     *string `json:"full_name"`
	Role         string  `gorm:"not null;default:user" json:"role"`
	IsVerified   bool    `gorm:"not null;default:false" json:"is_verified"`
	// Cleared once the address is verified so the link can't be replayed
	VerificationToken *string    `gorm:"index" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLogin         *time.Time `json:"last_login"`

	PasswordResets []PasswordReset    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ChatMessages   []ChatMessage      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Progress       []LearningProgress `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Snapshot is what callers get to see of an authenticated user. It never
// carries the password hash.
type Snapshot struct {
	ID         uint    `json:"id"`
	Email      string  `json:"email"`
	Username   string  `json:"username"`
	FullName   *string `json:"full_name"`
	Role       string  `json:"role"`
	IsVerified bool    `json:"is_verified"`
}

func (u *User) Snapshot() Snapshot {
	s := Snapshot{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}

	if u.FullName != nil {
		name := *u.FullName
		s.FullName = &name
	}

	return s
}

func (s Snapshot) IsAdmin() bool {
	return s.Role == RoleAdmin
}

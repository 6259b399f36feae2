package model

import "time"

// ChatMessage and LearningProgress belong to the lesson side of the
// platform. Only their ownership matters here: they go away with the user.

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    uint      `gorm:"index;not null"`
	LessonID  *uint     `gorm:"index"`
	Message   string    `gorm:"not null"`
	Response  string    `gorm:"not null"`
	Timestamp time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string { return "chat_history" }

type LearningProgress struct {
	ID                 uint `gorm:"primaryKey;autoIncrement"`
	UserID             uint `gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	LessonID           uint `gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	ProgressPercentage float64
	LastAccessed       time.Time `gorm:"autoUpdateTime"`
	Completed          bool      `gorm:"default:false"`
}

func (LearningProgress) TableName() string { return "learning_progress" }

package models

import "time"

// WebSessionModel represents the database persistence model for browser sessions.
type WebSessionModel struct {
	ID             string    `gorm:"primarykey;size:64"`
	UserID         uint      `gorm:"not null;index"`
	DeviceID       string    `gorm:"size:128"`
	IPAddress      string    `gorm:"size:45"`
	UserAgent      string    `gorm:"size:512"`
	ExpiresAt      time.Time `gorm:"not null;index"`
	LastActivityAt time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

// TableName specifies the table name for GORM
func (WebSessionModel) TableName() string {
	return "sessions"
}

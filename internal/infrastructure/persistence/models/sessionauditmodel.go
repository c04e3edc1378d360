package models

import "time"

// SessionAuditModel is one sign-in in the audit trail.
type SessionAuditModel struct {
	ID              string     `gorm:"primarykey;size:36"`
	UserID          uint       `gorm:"not null;index:idx_session_audits_user_status,priority:1"`
	SessionID       string     `gorm:"size:128;index"`
	TokenID         string     `gorm:"size:64;index"`
	Platform        string     `gorm:"size:16;not null"`
	DeviceType      string     `gorm:"size:32"`
	DeviceID        string     `gorm:"size:128;index"`
	IPAddress       string     `gorm:"size:45"`
	UserAgent       string     `gorm:"size:512"`
	LoginAt         time.Time  `gorm:"not null;index"`
	LogoutAt        *time.Time
	DurationSeconds *int64
	Status          string `gorm:"size:16;not null;index:idx_session_audits_user_status,priority:2"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (SessionAuditModel) TableName() string {
	return "session_audits"
}

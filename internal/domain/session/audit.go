package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditStatus is the lifecycle state of an audit record.
type AuditStatus string

const (
	AuditStatusActive    AuditStatus = "active"
	AuditStatusLoggedOut AuditStatus = "logged_out"
	AuditStatusExpired   AuditStatus = "expired"
)

// AuditRecord is the durable history of one sign-in. It is written for
// reporting only and never consulted when deciding access.
type AuditRecord struct {
	ID              string
	UserID          uint
	SessionID       string
	TokenID         string
	Platform        Platform
	DeviceType      string
	DeviceID        string
	IPAddress       string
	UserAgent       string
	LoginAt         time.Time
	LogoutAt        *time.Time
	DurationSeconds *int64
	Status          AuditStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewAuditRecord opens an active record for a sign-in at loginAt.
func NewAuditRecord(userID uint, platform Platform, deviceID string, loginAt time.Time) (*AuditRecord, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !platform.IsValid() {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	return &AuditRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Platform:  platform,
		DeviceID:  deviceID,
		LoginAt:   loginAt,
		Status:    AuditStatusActive,
		CreatedAt: loginAt,
		UpdatedAt: loginAt,
	}, nil
}

func (r *AuditRecord) IsActive() bool {
	return r.Status == AuditStatusActive
}

// Close stamps the logout time and duration. Closing an already closed
// record is a no-op so repeated logouts keep the first timestamp.
func (r *AuditRecord) Close(at time.Time, status AuditStatus) {
	if !r.IsActive() {
		return
	}

	duration := int64(at.Sub(r.LoginAt) / time.Second)
	if duration < 0 {
		duration = 0
	}

	r.LogoutAt = &at
	r.DurationSeconds = &duration
	r.Status = status
	r.UpdatedAt = at
}

// AuditRepository persists audit records. Find methods return a NotFound
// error when nothing matches.
type AuditRepository interface {
	Create(ctx context.Context, record *AuditRecord) error
	Update(ctx context.Context, record *AuditRecord) error
	GetByID(ctx context.Context, id string) (*AuditRecord, error)
	FindActiveBySessionID(ctx context.Context, sessionID string) (*AuditRecord, error)
	FindActiveByTokenID(ctx context.Context, tokenID string) (*AuditRecord, error)
	FindLatestActiveByUserID(ctx context.Context, userID uint) (*AuditRecord, error)
	ListActiveByUserID(ctx context.Context, userID uint) ([]*AuditRecord, error)
	ListActiveByDevice(ctx context.Context, userID uint, deviceID string) ([]*AuditRecord, error)
	ListActiveLoggedInBefore(ctx context.Context, before time.Time, limit int) ([]*AuditRecord, error)
}

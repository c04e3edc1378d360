package session

import (
	"context"
	"fmt"
	"time"
)

// WebSession is the durable row behind a browser session. Deleting it is how
// a browser gets signed out server-side.
type WebSession struct {
	ID             string
	UserID         uint
	DeviceID       string
	IPAddress      string
	UserAgent      string
	ExpiresAt      time.Time
	LastActivityAt time.Time
	CreatedAt      time.Time
}

func NewWebSession(id string, userID uint, ipAddress, userAgent string, now, expiresAt time.Time) (*WebSession, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if id == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	return &WebSession{
		ID:             id,
		UserID:         userID,
		DeviceID:       WebDeviceID(id),
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		ExpiresAt:      expiresAt,
		LastActivityAt: now,
		CreatedAt:      now,
	}, nil
}

func (s *WebSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type WebSessionRepository interface {
	// Save inserts the session or replaces the row with the same ID.
	Save(ctx context.Context, session *WebSession) error
	GetByID(ctx context.Context, id string) (*WebSession, error)
	ListByUserID(ctx context.Context, userID uint) ([]*WebSession, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUserIDExcept removes every session of the user other than keepID.
	DeleteByUserIDExcept(ctx context.Context, userID uint, keepID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

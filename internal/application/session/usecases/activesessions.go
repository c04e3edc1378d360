package usecases

import (
	"context"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

// ActiveSessions is the dashboard view of a user's sign-ins: the device each
// platform currently trusts and the audit rows still open.
type ActiveSessions struct {
	Current []*session.Entry
	Open    []*session.AuditRecord
}

type ActiveSessionsUseCase struct {
	tracker *session.Tracker
	audits  session.AuditRepository
	logger  logger.Interface
}

func NewActiveSessionsUseCase(tracker *session.Tracker, audits session.AuditRepository, logger logger.Interface) *ActiveSessionsUseCase {
	return &ActiveSessionsUseCase{
		tracker: tracker,
		audits:  audits,
		logger:  logger,
	}
}

// Get returns the Session Entry of the given browser session, or when
// sessionID is empty the entry of the current web device, falling back to
// the current app device. nil means nothing is tracked.
func (uc *ActiveSessionsUseCase) Get(ctx context.Context, userID uint, sessionID string) *session.Entry {
	if sessionID != "" {
		return uc.entry(ctx, userID, session.WebDeviceID(sessionID))
	}

	for _, platform := range []session.Platform{session.PlatformWeb, session.PlatformApp} {
		if entry := uc.currentEntry(ctx, userID, platform); entry != nil {
			return entry
		}
	}
	return nil
}

func (uc *ActiveSessionsUseCase) List(ctx context.Context, userID uint) *ActiveSessions {
	result := &ActiveSessions{}

	for _, platform := range []session.Platform{session.PlatformWeb, session.PlatformApp, session.PlatformAPI} {
		if entry := uc.currentEntry(ctx, userID, platform); entry != nil {
			result.Current = append(result.Current, entry)
		}
	}

	open, err := uc.audits.ListActiveByUserID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to list open session audits", "user_id", userID, "error", err)
	} else {
		result.Open = open
	}

	return result
}

func (uc *ActiveSessionsUseCase) currentEntry(ctx context.Context, userID uint, platform session.Platform) *session.Entry {
	deviceID, err := uc.tracker.CurrentDevice(ctx, userID, platform)
	if err != nil {
		uc.logger.Warnw("failed to read current device", "user_id", userID, "platform", platform, "error", err)
		return nil
	}
	if deviceID == "" {
		return nil
	}
	return uc.entry(ctx, userID, deviceID)
}

func (uc *ActiveSessionsUseCase) entry(ctx context.Context, userID uint, deviceID string) *session.Entry {
	entry, err := uc.tracker.Entry(ctx, userID, deviceID)
	if err != nil {
		uc.logger.Warnw("failed to read session entry", "user_id", userID, "device_id", deviceID, "error", err)
		return nil
	}
	return entry
}

package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/biztime"
	apperrors "github.com/orris-inc/sessiongate/internal/shared/errors"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

type RegisterLoginCommand struct {
	UserID        uint
	Platform      session.Platform
	DeviceID      string
	DeviceType    string
	SessionID     string
	TokenID       string
	TokenIssuedAt time.Time
	IPAddress     string
	UserAgent     string
}

type RegisterLoginResult struct {
	Entry *session.Entry
	// PreviousDeviceID is the current-device pointer as it was before this
	// login overwrote it; empty when the platform had none.
	PreviousDeviceID string
}

type RegisterLoginUseCase struct {
	tracker       *session.Tracker
	webSessions   session.WebSessionRepository
	recorder      *LifecycleRecorder
	webLifetime   time.Duration
	runBackground BackgroundRunner
	now           biztime.Clock
	logger        logger.Interface
}

func NewRegisterLoginUseCase(
	tracker *session.Tracker,
	webSessions session.WebSessionRepository,
	recorder *LifecycleRecorder,
	webLifetime time.Duration,
	runBackground BackgroundRunner,
	now biztime.Clock,
	logger logger.Interface,
) *RegisterLoginUseCase {
	return &RegisterLoginUseCase{
		tracker:       tracker,
		webSessions:   webSessions,
		recorder:      recorder,
		webLifetime:   webLifetime,
		runBackground: runBackground,
		now:           now,
		logger:        logger,
	}
}

// Execute records the login in the cache. Cache failures are returned since
// they gate access. The browser session row is written next and the audit
// row in the background; durable failures are only logged.
func (uc *RegisterLoginUseCase) Execute(ctx context.Context, cmd RegisterLoginCommand) (*RegisterLoginResult, error) {
	if cmd.UserID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !cmd.Platform.IsValid() {
		return nil, fmt.Errorf("unknown platform %q", cmd.Platform)
	}
	if err := checkDeviceID(cmd.Platform, cmd.DeviceID, cmd.SessionID); err != nil {
		return nil, err
	}

	previous, err := uc.tracker.CurrentDevice(ctx, cmd.UserID, cmd.Platform)
	if err != nil {
		uc.logger.Warnw("failed to read previous current device",
			"user_id", cmd.UserID,
			"platform", cmd.Platform,
			"error", err,
		)
		previous = ""
	}

	entry := &session.Entry{
		UserID:        cmd.UserID,
		DeviceID:      cmd.DeviceID,
		Platform:      cmd.Platform,
		TokenIssuedAt: cmd.TokenIssuedAt,
		IPAddress:     cmd.IPAddress,
		UserAgent:     cmd.UserAgent,
	}
	if cmd.Platform == session.PlatformWeb {
		entry.SessionID = cmd.SessionID
	}

	if err := uc.tracker.SaveEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save session entry: %w", err)
	}
	if err := uc.tracker.SetCurrentDevice(ctx, cmd.UserID, cmd.Platform, cmd.DeviceID); err != nil {
		return nil, fmt.Errorf("failed to set current device: %w", err)
	}
	if err := uc.tracker.SetTokenIssuedAt(ctx, cmd.UserID, cmd.DeviceID, cmd.TokenIssuedAt); err != nil {
		return nil, fmt.Errorf("failed to set token timestamp: %w", err)
	}

	uc.logger.Infow("login registered",
		"user_id", cmd.UserID,
		"platform", cmd.Platform,
		"device_id", cmd.DeviceID,
		"previous_device_id", previous,
	)

	loginAt := uc.now()
	if cmd.Platform == session.PlatformWeb && cmd.SessionID != "" {
		// Saved before returning so the next login's invalidation sees the row.
		uc.saveWebSession(ctx, cmd, loginAt)
	}
	uc.recordDurable(cmd, loginAt)

	return &RegisterLoginResult{
		Entry:            entry,
		PreviousDeviceID: previous,
	}, nil
}

func (uc *RegisterLoginUseCase) recordDurable(cmd RegisterLoginCommand, loginAt time.Time) {
	uc.runBackground("session.register.audit", func(ctx context.Context) {
		record, err := session.NewAuditRecord(cmd.UserID, cmd.Platform, cmd.DeviceID, loginAt)
		if err != nil {
			uc.logger.Errorw("failed to build session audit", "user_id", cmd.UserID, "error", err)
			return
		}
		record.SessionID = cmd.SessionID
		record.TokenID = cmd.TokenID
		record.DeviceType = cmd.DeviceType
		record.IPAddress = cmd.IPAddress
		record.UserAgent = cmd.UserAgent

		uc.recorder.LogLogin(ctx, record)
	})
}

func (uc *RegisterLoginUseCase) saveWebSession(ctx context.Context, cmd RegisterLoginCommand, now time.Time) {
	webSession, err := session.NewWebSession(cmd.SessionID, cmd.UserID, cmd.IPAddress, cmd.UserAgent, now, now.Add(uc.webLifetime))
	if err != nil {
		uc.logger.Errorw("failed to build web session", "user_id", cmd.UserID, "error", err)
		return
	}
	if err := uc.webSessions.Save(ctx, webSession); err != nil {
		uc.logger.Errorw("failed to save web session",
			"user_id", cmd.UserID,
			"session_id", cmd.SessionID,
			"error", err,
		)
	}
}

// checkDeviceID keeps every platform inside its own device id namespace and a
// browser device tied to its session.
func checkDeviceID(platform session.Platform, deviceID, sessionID string) error {
	if !platform.OwnsDeviceID(deviceID) {
		return apperrors.NewValidationError(fmt.Sprintf("device id %q is not a valid %s device", deviceID, platform))
	}
	if platform == session.PlatformWeb && sessionID != "" && deviceID != session.WebDeviceID(sessionID) {
		return apperrors.NewValidationError(fmt.Sprintf("device id %q does not belong to session %q", deviceID, sessionID))
	}
	return nil
}

package usecases

import (
	"context"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/biztime"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

// LogoutCommand mirrors a LogoutEvent: the user plus whatever identifies the
// credential being signed out.
type LogoutCommand struct {
	UserID   uint
	Metadata session.RequestMetadata
	Platform session.Platform
	TokenID  string
}

type LogoutResult struct {
	Identity session.DeviceIdentity
	// Record is the closed audit row, nil when none matched.
	Record *session.AuditRecord
}

// LogoutUseCase signs one device out. Browser tokens of the device are
// rejected once their fresh-token grace has passed; app tokens are cut off
// through the platform cutoff.
type LogoutUseCase struct {
	tracker     *session.Tracker
	webSessions session.WebSessionRepository
	recorder    *LifecycleRecorder
	policy      Policy
	now         biztime.Clock
	logger      logger.Interface
}

func NewLogoutUseCase(
	tracker *session.Tracker,
	webSessions session.WebSessionRepository,
	recorder *LifecycleRecorder,
	policy Policy,
	now biztime.Clock,
	logger logger.Interface,
) *LogoutUseCase {
	return &LogoutUseCase{
		tracker:     tracker,
		webSessions: webSessions,
		recorder:    recorder,
		policy:      policy,
		now:         now,
		logger:      logger,
	}
}

func (uc *LogoutUseCase) Execute(ctx context.Context, cmd LogoutCommand) *LogoutResult {
	identity := ResolveIdentity(cmd.Metadata, cmd.Platform)

	sessionID := ""
	if identity.Platform == session.PlatformWeb {
		sessionID, _ = session.WebSessionIDFromDevice(identity.DeviceID)
	}

	record := uc.recorder.LogLogout(ctx, LogoutTarget{
		UserID:    cmd.UserID,
		SessionID: sessionID,
		TokenID:   cmd.TokenID,
	})

	uc.forgetDevice(ctx, cmd.UserID, identity.DeviceID)

	switch identity.Platform {
	case session.PlatformApp:
		current, err := uc.tracker.CurrentDevice(ctx, cmd.UserID, session.PlatformApp)
		if err != nil {
			uc.logger.Warnw("failed to read current app device on logout", "user_id", cmd.UserID, "error", err)
		} else if current == identity.DeviceID {
			uc.retireAppPlatform(ctx, cmd.UserID)
		}
	case session.PlatformWeb:
		if sessionID != "" {
			if err := uc.webSessions.Delete(ctx, sessionID); err != nil {
				uc.logger.Errorw("failed to delete web session on logout",
					"user_id", cmd.UserID,
					"session_id", sessionID,
					"error", err,
				)
			}
		}
	}

	uc.logger.Infow("user logged out",
		"user_id", cmd.UserID,
		"platform", identity.Platform,
		"device_id", identity.DeviceID,
	)

	return &LogoutResult{Identity: identity, Record: record}
}

func (uc *LogoutUseCase) forgetDevice(ctx context.Context, userID uint, deviceID string) {
	if err := uc.tracker.ForgetEntry(ctx, userID, deviceID); err != nil {
		uc.logger.Errorw("failed to forget session entry", "user_id", userID, "device_id", deviceID, "error", err)
	}
	if err := uc.tracker.ForgetTokenIssuedAt(ctx, userID, deviceID); err != nil {
		uc.logger.Errorw("failed to forget token timestamp", "user_id", userID, "device_id", deviceID, "error", err)
	}
}

// retireAppPlatform clears the app pointer and moves the cutoff to now so
// every app token issued so far is rejected once the propagation grace passes.
func (uc *LogoutUseCase) retireAppPlatform(ctx context.Context, userID uint) {
	if err := uc.tracker.ClearCurrentDevice(ctx, userID, session.PlatformApp); err != nil {
		uc.logger.Errorw("failed to clear current app device", "user_id", userID, "error", err)
	}
	cutoff := uc.policy.PlatformCutoff(uc.now(), uc.now())
	if err := uc.tracker.SetPlatformCutoff(ctx, userID, session.PlatformApp, cutoff); err != nil {
		uc.logger.Errorw("failed to set app cutoff on logout", "user_id", userID, "error", err)
	}
}

// LogoutAll signs the user out on every platform and returns how many audit
// rows were closed.
func (uc *LogoutUseCase) LogoutAll(ctx context.Context, userID uint) int64 {
	closed := uc.recorder.LogLogoutAll(ctx, userID)

	for _, platform := range []session.Platform{session.PlatformWeb, session.PlatformApp, session.PlatformAPI} {
		current, err := uc.tracker.CurrentDevice(ctx, userID, platform)
		if err != nil {
			uc.logger.Warnw("failed to read current device on logout-all",
				"user_id", userID,
				"platform", platform,
				"error", err,
			)
			continue
		}
		if current == "" {
			continue
		}
		uc.forgetDevice(ctx, userID, current)
		if platform == session.PlatformApp {
			uc.retireAppPlatform(ctx, userID)
		}
	}

	if _, err := uc.webSessions.DeleteByUserIDExcept(ctx, userID, ""); err != nil {
		uc.logger.Errorw("failed to delete web sessions on logout-all", "user_id", userID, "error", err)
	}

	uc.logger.Infow("user logged out everywhere", "user_id", userID, "sessions_closed", closed)
	return closed
}

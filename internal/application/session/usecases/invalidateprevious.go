package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/biztime"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

type InvalidateCommand struct {
	UserID           uint
	Platform         session.Platform
	DeviceID         string
	PreviousDeviceID string
	TokenIssuedAt    time.Time
}

type InvalidateResult struct {
	// Invalidated is false when there was no other device to invalidate.
	Invalidated        bool
	WebSessionsRemoved int64
	PlatformCutoff     *time.Time
}

// InvalidatePreviousSessionUseCase retires the session a new login replaced
// on the same platform. Other platforms are never touched.
type InvalidatePreviousSessionUseCase struct {
	tracker       *session.Tracker
	webSessions   session.WebSessionRepository
	recorder      *LifecycleRecorder
	policy        Policy
	metrics       Metrics
	runBackground BackgroundRunner
	now           biztime.Clock
	logger        logger.Interface
}

func NewInvalidatePreviousSessionUseCase(
	tracker *session.Tracker,
	webSessions session.WebSessionRepository,
	recorder *LifecycleRecorder,
	policy Policy,
	metrics Metrics,
	runBackground BackgroundRunner,
	now biztime.Clock,
	logger logger.Interface,
) *InvalidatePreviousSessionUseCase {
	return &InvalidatePreviousSessionUseCase{
		tracker:       tracker,
		webSessions:   webSessions,
		recorder:      recorder,
		policy:        policy,
		metrics:       metrics,
		runBackground: runBackground,
		now:           now,
		logger:        logger,
	}
}

func (uc *InvalidatePreviousSessionUseCase) Execute(ctx context.Context, cmd InvalidateCommand) (*InvalidateResult, error) {
	result := &InvalidateResult{}
	if cmd.PreviousDeviceID == "" || cmd.PreviousDeviceID == cmd.DeviceID {
		return result, nil
	}
	result.Invalidated = true

	switch cmd.Platform {
	case session.PlatformWeb:
		result.WebSessionsRemoved = uc.removeOtherWebSessions(ctx, cmd)
	case session.PlatformApp:
		cutoff := uc.policy.PlatformCutoff(cmd.TokenIssuedAt, uc.now())
		if err := uc.tracker.SetPlatformCutoff(ctx, cmd.UserID, session.PlatformApp, cutoff); err != nil {
			return result, fmt.Errorf("failed to set app cutoff: %w", err)
		}
		result.PlatformCutoff = &cutoff
	}

	if err := uc.tracker.ForgetEntry(ctx, cmd.UserID, cmd.PreviousDeviceID); err != nil {
		return result, fmt.Errorf("failed to forget previous session entry: %w", err)
	}

	uc.metrics.ObserveInvalidation(cmd.Platform.String())
	uc.logger.Infow("previous session invalidated",
		"user_id", cmd.UserID,
		"platform", cmd.Platform,
		"device_id", cmd.DeviceID,
		"previous_device_id", cmd.PreviousDeviceID,
		"web_sessions_removed", result.WebSessionsRemoved,
	)

	uc.runBackground("session.invalidate.audit", func(ctx context.Context) {
		uc.recorder.CloseSuperseded(ctx, cmd.UserID, cmd.PreviousDeviceID)
	})

	return result, nil
}

// removeOtherWebSessions deletes every browser session of the user except
// the one that just logged in; a user may have several tabs or browsers open.
func (uc *InvalidatePreviousSessionUseCase) removeOtherWebSessions(ctx context.Context, cmd InvalidateCommand) int64 {
	keepID, _ := session.WebSessionIDFromDevice(cmd.DeviceID)

	removed, err := uc.webSessions.DeleteByUserIDExcept(ctx, cmd.UserID, keepID)
	if err != nil {
		uc.logger.Errorw("failed to delete previous web sessions",
			"user_id", cmd.UserID,
			"keep_session_id", keepID,
			"error", err,
		)
		return 0
	}
	return removed
}

package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/biztime"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

type ExpireSessionsResult struct {
	AuditsExpired      int
	WebSessionsRemoved int64
}

// ExpireSessionsUseCase is the periodic cleanup: it closes audit rows whose
// tracking has lapsed and drops expired browser sessions.
type ExpireSessionsUseCase struct {
	recorder    *LifecycleRecorder
	webSessions session.WebSessionRepository
	now         biztime.Clock
	logger      logger.Interface
}

func NewExpireSessionsUseCase(
	recorder *LifecycleRecorder,
	webSessions session.WebSessionRepository,
	now biztime.Clock,
	logger logger.Interface,
) *ExpireSessionsUseCase {
	return &ExpireSessionsUseCase{
		recorder:    recorder,
		webSessions: webSessions,
		now:         now,
		logger:      logger,
	}
}

func (uc *ExpireSessionsUseCase) Execute(ctx context.Context) (*ExpireSessionsResult, error) {
	result := &ExpireSessionsResult{}

	expired, err := uc.recorder.ExpireStale(ctx)
	result.AuditsExpired = expired
	if err != nil {
		return result, fmt.Errorf("failed to expire session audits: %w", err)
	}

	removed, err := uc.webSessions.DeleteExpired(ctx, uc.now())
	if err != nil {
		return result, fmt.Errorf("failed to delete expired web sessions: %w", err)
	}
	result.WebSessionsRemoved = removed

	if result.AuditsExpired > 0 || result.WebSessionsRemoved > 0 {
		uc.logger.Infow("expired stale sessions",
			"audits_expired", result.AuditsExpired,
			"web_sessions_removed", result.WebSessionsRemoved,
		)
	}
	return result, nil
}

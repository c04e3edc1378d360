package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/biztime"
	"github.com/orris-inc/sessiongate/internal/shared/errors"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

const expireBatchSize = 500

// LogoutTarget selects the audit row a logout closes. The first non-empty
// field wins: SessionID, then TokenID, then the user's latest open row.
type LogoutTarget struct {
	UserID    uint
	SessionID string
	TokenID   string
}

// LifecycleRecorder writes the durable audit trail. It is a side-effect sink:
// failures are logged and never reach the caller, except from ExpireStale
// which runs as a batch job.
type LifecycleRecorder struct {
	repo      session.AuditRepository
	retention time.Duration
	now       biztime.Clock
	logger    logger.Interface
}

// NewLifecycleRecorder creates a recorder. Open rows older than retention are
// closed by ExpireStale.
func NewLifecycleRecorder(
	repo session.AuditRepository,
	retention time.Duration,
	now biztime.Clock,
	logger logger.Interface,
) *LifecycleRecorder {
	return &LifecycleRecorder{
		repo:      repo,
		retention: retention,
		now:       now,
		logger:    logger,
	}
}

func (r *LifecycleRecorder) LogLogin(ctx context.Context, record *session.AuditRecord) {
	if err := r.repo.Create(ctx, record); err != nil {
		r.logger.Errorw("failed to record login",
			"user_id", record.UserID,
			"device_id", record.DeviceID,
			"error", err,
		)
	}
}

// LogLogout closes the targeted row and returns it, or nil when nothing
// matched or the write failed.
func (r *LifecycleRecorder) LogLogout(ctx context.Context, target LogoutTarget) *session.AuditRecord {
	record, err := r.findLogoutTarget(ctx, target)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			r.logger.Errorw("failed to find session audit for logout",
				"user_id", target.UserID,
				"session_id", target.SessionID,
				"token_id", target.TokenID,
				"error", err,
			)
		}
		return nil
	}

	if !r.close(ctx, record, session.AuditStatusLoggedOut) {
		return nil
	}
	return record
}

func (r *LifecycleRecorder) findLogoutTarget(ctx context.Context, target LogoutTarget) (*session.AuditRecord, error) {
	switch {
	case target.SessionID != "":
		return r.repo.FindActiveBySessionID(ctx, target.SessionID)
	case target.TokenID != "":
		return r.repo.FindActiveByTokenID(ctx, target.TokenID)
	case target.UserID != 0:
		return r.repo.FindLatestActiveByUserID(ctx, target.UserID)
	default:
		return nil, errors.NewNotFoundError("no logout target")
	}
}

// LogLogoutAll closes every open row of the user and returns how many were closed.
func (r *LifecycleRecorder) LogLogoutAll(ctx context.Context, userID uint) int64 {
	records, err := r.repo.ListActiveByUserID(ctx, userID)
	if err != nil {
		r.logger.Errorw("failed to list sessions for logout-all", "user_id", userID, "error", err)
		return 0
	}
	return r.closeAll(ctx, records, session.AuditStatusLoggedOut)
}

// CloseSuperseded closes the open rows of a device that lost its session to
// a newer login.
func (r *LifecycleRecorder) CloseSuperseded(ctx context.Context, userID uint, deviceID string) int64 {
	records, err := r.repo.ListActiveByDevice(ctx, userID, deviceID)
	if err != nil {
		r.logger.Errorw("failed to list superseded sessions",
			"user_id", userID,
			"device_id", deviceID,
			"error", err,
		)
		return 0
	}
	return r.closeAll(ctx, records, session.AuditStatusExpired)
}

// ExpireStale closes open rows whose login is older than the retention
// window. Their cache tracking has expired by then.
func (r *LifecycleRecorder) ExpireStale(ctx context.Context) (int, error) {
	before := r.now().Add(-r.retention)
	total := 0

	for {
		records, err := r.repo.ListActiveLoggedInBefore(ctx, before, expireBatchSize)
		if err != nil {
			return total, fmt.Errorf("failed to list stale sessions: %w", err)
		}

		for _, record := range records {
			record.Close(r.now(), session.AuditStatusExpired)
			if err := r.repo.Update(ctx, record); err != nil {
				return total, fmt.Errorf("failed to expire session audit %s: %w", record.ID, err)
			}
			total++
		}

		if len(records) < expireBatchSize {
			return total, nil
		}
	}
}

func (r *LifecycleRecorder) closeAll(ctx context.Context, records []*session.AuditRecord, status session.AuditStatus) int64 {
	var closed int64
	for _, record := range records {
		if r.close(ctx, record, status) {
			closed++
		}
	}
	return closed
}

func (r *LifecycleRecorder) close(ctx context.Context, record *session.AuditRecord, status session.AuditStatus) bool {
	record.Close(r.now(), status)
	if err := r.repo.Update(ctx, record); err != nil {
		r.logger.Errorw("failed to close session audit",
			"audit_id", record.ID,
			"status", status,
			"error", err,
		)
		return false
	}
	return true
}

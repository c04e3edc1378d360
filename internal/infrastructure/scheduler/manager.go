// Package scheduler runs the periodic session maintenance jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/sessiongate/internal/application/session/usecases"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

const expiryJobTimeout = 10 * time.Minute

// SessionExpirer closes lapsed audit rows and drops expired browser sessions.
type SessionExpirer interface {
	ExpireSessions(ctx context.Context) (*usecases.ExpireSessionsResult, error)
}

// SchedulerManager owns the single gocron scheduler of the process.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterSessionExpiryJob runs the expiry sweep every interval, starting
// immediately. A non-positive interval disables the job.
func (m *SchedulerManager) RegisterSessionExpiryJob(expirer SessionExpirer, interval time.Duration) error {
	if interval <= 0 {
		m.logger.Infow("session expiry job disabled")
		return nil
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), expiryJobTimeout)
			defer cancel()
			m.expireSessions(ctx, expirer)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("session", "expire"),
		gocron.WithName("session-expiry"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered session expiry job", "interval", interval.String())
	return nil
}

func (m *SchedulerManager) expireSessions(ctx context.Context, expirer SessionExpirer) {
	m.logger.Debugw("session expiry sweep started")

	startTime := time.Now()

	result, err := expirer.ExpireSessions(ctx)
	if err != nil {
		m.logger.Errorw("failed to expire sessions",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if result.AuditsExpired > 0 || result.WebSessionsRemoved > 0 {
		m.logger.Infow("session expiry sweep finished",
			"audits_expired", result.AuditsExpired,
			"web_sessions_removed", result.WebSessionsRemoved,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no sessions to expire",
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}

// Package session wires the session-tracking use cases into one service used
// by the HTTP layer and by in-process middleware.
package session

import (
	"context"
	"time"

	"github.com/orris-inc/sessiongate/internal/application/session/usecases"
	domain "github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/biztime"
	"github.com/orris-inc/sessiongate/internal/shared/config"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

const (
	defaultTrackingTTL = 30 * 24 * time.Hour
	defaultWebLifetime = 24 * time.Hour
)

// TokenService issues credentials and decodes their issue time.
type TokenService interface {
	usecases.TokenIssuer
	usecases.TokenDecoder
}

type Dependencies struct {
	Store       domain.Store
	Audits      domain.AuditRepository
	WebSessions domain.WebSessionRepository
	Tokens      TokenService
	Config      config.SessionConfig
	// Optional; defaults are no-op metrics, the wall clock and async
	// background writes.
	Metrics usecases.Metrics
	Clock   biztime.Clock
	Runner  usecases.BackgroundRunner
	Logger  logger.Interface
}

type Service struct {
	loginUC       *usecases.LoginUseCase
	handleLoginUC *usecases.HandleLoginUseCase
	validateUC    *usecases.ValidateTokenUseCase
	logoutUC      *usecases.LogoutUseCase
	activeUC      *usecases.ActiveSessionsUseCase
	expireUC      *usecases.ExpireSessionsUseCase
	logger        logger.Interface
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewLogger()
	}
	log = log.Named("session")

	metrics := deps.Metrics
	if metrics == nil {
		metrics = usecases.NopMetrics()
	}
	clock := deps.Clock
	if clock == nil {
		clock = biztime.NowUTC
	}
	runner := deps.Runner
	if runner == nil {
		runner = usecases.AsyncRunner(log)
	}

	ttl := deps.Config.TrackingTTL
	if ttl <= 0 {
		ttl = defaultTrackingTTL
	}
	webLifetime := time.Duration(deps.Config.WebExpDays) * 24 * time.Hour
	if webLifetime <= 0 {
		webLifetime = defaultWebLifetime
	}

	policy := usecases.NewPolicy(deps.Config.Policy)
	tracker := domain.NewTracker(deps.Store, ttl)
	recorder := usecases.NewLifecycleRecorder(deps.Audits, ttl, clock, log.Named("recorder"))

	register := usecases.NewRegisterLoginUseCase(tracker, deps.WebSessions, recorder, webLifetime, runner, clock, log.Named("registrar"))
	invalidate := usecases.NewInvalidatePreviousSessionUseCase(tracker, deps.WebSessions, recorder, policy, metrics, runner, clock, log.Named("invalidation"))
	handleLogin := usecases.NewHandleLoginUseCase(register, invalidate, metrics, log)

	return &Service{
		loginUC:       usecases.NewLoginUseCase(deps.Tokens, handleLogin, log),
		handleLoginUC: handleLogin,
		validateUC:    usecases.NewValidateTokenUseCase(tracker, deps.Tokens, policy, metrics, clock, log.Named("validator")),
		logoutUC:      usecases.NewLogoutUseCase(tracker, deps.WebSessions, recorder, policy, clock, log),
		activeUC:      usecases.NewActiveSessionsUseCase(tracker, deps.Audits, log),
		expireUC:      usecases.NewExpireSessionsUseCase(recorder, deps.WebSessions, clock, log),
		logger:        log,
	}
}

// Login issues a token for an authenticated user and registers the login.
func (s *Service) Login(ctx context.Context, cmd usecases.LoginCommand) (*usecases.LoginResult, error) {
	return s.loginUC.Execute(ctx, cmd)
}

// HandleLogin registers a login whose credential was issued elsewhere.
func (s *Service) HandleLogin(ctx context.Context, event usecases.AuthenticationEvent) (*usecases.HandleLoginResult, error) {
	return s.handleLoginUC.Execute(ctx, event)
}

func (s *Service) Validate(ctx context.Context, cmd usecases.ValidateCommand) usecases.Decision {
	return s.validateUC.Execute(ctx, cmd)
}

// IsValid is the access-control decision point.
func (s *Service) IsValid(ctx context.Context, cmd usecases.ValidateCommand) bool {
	return s.validateUC.Execute(ctx, cmd).Allowed
}

func (s *Service) HandleLogout(ctx context.Context, cmd usecases.LogoutCommand) *usecases.LogoutResult {
	return s.logoutUC.Execute(ctx, cmd)
}

func (s *Service) LogoutAll(ctx context.Context, userID uint) int64 {
	return s.logoutUC.LogoutAll(ctx, userID)
}

func (s *Service) GetActiveSessionInfo(ctx context.Context, userID uint, sessionID string) *domain.Entry {
	return s.activeUC.Get(ctx, userID, sessionID)
}

func (s *Service) ListActiveSessions(ctx context.Context, userID uint) *usecases.ActiveSessions {
	return s.activeUC.List(ctx, userID)
}

// ExpireSessions runs the periodic cleanup; the scheduler calls it.
func (s *Service) ExpireSessions(ctx context.Context) (*usecases.ExpireSessionsResult, error) {
	return s.expireUC.Execute(ctx)
}

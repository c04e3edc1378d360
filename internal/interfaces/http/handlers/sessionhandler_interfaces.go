package handlers

import (
	"context"

	"github.com/orris-inc/sessiongate/internal/application/session/usecases"
	"github.com/orris-inc/sessiongate/internal/domain/session"
)

// Service interfaces for the session handlers - enables unit testing with mocks.

type sessionLoginService interface {
	Login(ctx context.Context, cmd usecases.LoginCommand) (*usecases.LoginResult, error)
	HandleLogin(ctx context.Context, event usecases.AuthenticationEvent) (*usecases.HandleLoginResult, error)
}

type sessionValidationService interface {
	Validate(ctx context.Context, cmd usecases.ValidateCommand) usecases.Decision
}

type sessionLogoutService interface {
	HandleLogout(ctx context.Context, cmd usecases.LogoutCommand) *usecases.LogoutResult
	LogoutAll(ctx context.Context, userID uint) int64
}

type sessionQueryService interface {
	GetActiveSessionInfo(ctx context.Context, userID uint, sessionID string) *session.Entry
	ListActiveSessions(ctx context.Context, userID uint) *usecases.ActiveSessions
}

// InternalSessionService is what the internal API needs from the engine.
type InternalSessionService interface {
	sessionLoginService
	sessionValidationService
	sessionLogoutService
}

// UserSessionService is what the user-facing session endpoints need.
type UserSessionService interface {
	sessionLogoutService
	sessionQueryService
}

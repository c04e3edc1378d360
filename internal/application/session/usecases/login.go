package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

// AuthenticationEvent is emitted by a login flow that already issued its
// credential.
type AuthenticationEvent struct {
	UserID     uint
	Platform   session.Platform
	DeviceID   string
	DeviceType string
	SessionID  string
	TokenID    string
	IssuedAt   time.Time
	IPAddress  string
	UserAgent  string
}

type HandleLoginResult struct {
	Entry            *session.Entry
	PreviousDeviceID string
	Invalidated      bool
}

// HandleLoginUseCase registers a login and then invalidates whatever session
// it replaced, in that order.
type HandleLoginUseCase struct {
	register   *RegisterLoginUseCase
	invalidate *InvalidatePreviousSessionUseCase
	metrics    Metrics
	logger     logger.Interface
}

func NewHandleLoginUseCase(
	register *RegisterLoginUseCase,
	invalidate *InvalidatePreviousSessionUseCase,
	metrics Metrics,
	logger logger.Interface,
) *HandleLoginUseCase {
	return &HandleLoginUseCase{
		register:   register,
		invalidate: invalidate,
		metrics:    metrics,
		logger:     logger,
	}
}

func (uc *HandleLoginUseCase) Execute(ctx context.Context, event AuthenticationEvent) (*HandleLoginResult, error) {
	registered, err := uc.register.Execute(ctx, RegisterLoginCommand{
		UserID:        event.UserID,
		Platform:      event.Platform,
		DeviceID:      event.DeviceID,
		DeviceType:    event.DeviceType,
		SessionID:     event.SessionID,
		TokenID:       event.TokenID,
		TokenIssuedAt: event.IssuedAt,
		IPAddress:     event.IPAddress,
		UserAgent:     event.UserAgent,
	})
	if err != nil {
		uc.logger.Errorw("failed to register login",
			"user_id", event.UserID,
			"platform", event.Platform,
			"error", err,
		)
		return nil, err
	}
	uc.metrics.ObserveLogin(event.Platform.String())

	result := &HandleLoginResult{
		Entry:            registered.Entry,
		PreviousDeviceID: registered.PreviousDeviceID,
	}

	invalidated, err := uc.invalidate.Execute(ctx, InvalidateCommand{
		UserID:           event.UserID,
		Platform:         event.Platform,
		DeviceID:         event.DeviceID,
		PreviousDeviceID: registered.PreviousDeviceID,
		TokenIssuedAt:    event.IssuedAt,
	})
	if err != nil {
		// The new login stands; the old device is caught by the grace rules.
		uc.logger.Errorw("failed to invalidate previous session",
			"user_id", event.UserID,
			"platform", event.Platform,
			"previous_device_id", registered.PreviousDeviceID,
			"error", err,
		)
	}
	if invalidated != nil {
		result.Invalidated = invalidated.Invalidated
	}

	return result, nil
}

type LoginCommand struct {
	UserID   uint
	Metadata session.RequestMetadata
	// Platform forces the API platform; leave empty for web and app clients.
	Platform session.Platform
}

type LoginResult struct {
	Token            *IssuedToken
	Identity         session.DeviceIdentity
	SessionID        string
	PreviousDeviceID string
}

// LoginUseCase issues a credential for an authenticated user and registers it.
type LoginUseCase struct {
	issuer      TokenIssuer
	handleLogin *HandleLoginUseCase
	logger      logger.Interface
}

func NewLoginUseCase(issuer TokenIssuer, handleLogin *HandleLoginUseCase, logger logger.Interface) *LoginUseCase {
	return &LoginUseCase{
		issuer:      issuer,
		handleLogin: handleLogin,
		logger:      logger,
	}
}

func (uc *LoginUseCase) Execute(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	meta := cmd.Metadata
	identity := ResolveIdentity(meta, cmd.Platform)

	// A browser logging in starts a new session.
	if identity.Platform == session.PlatformWeb && meta.SessionID == "" {
		meta.SessionID = uuid.NewString()
		identity = ResolveIdentity(meta, cmd.Platform)
	}

	sessionID := ""
	if identity.Platform == session.PlatformWeb {
		sessionID = meta.SessionID
	}
	if err := checkDeviceID(identity.Platform, identity.DeviceID, sessionID); err != nil {
		return nil, err
	}

	token, err := uc.issuer.IssueToken(TokenRequest{
		UserID:    cmd.UserID,
		SessionID: sessionID,
		DeviceID:  identity.DeviceID,
		Platform:  identity.Platform,
	})
	if err != nil {
		uc.logger.Errorw("failed to issue token", "user_id", cmd.UserID, "error", err)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	handled, err := uc.handleLogin.Execute(ctx, AuthenticationEvent{
		UserID:     cmd.UserID,
		Platform:   identity.Platform,
		DeviceID:   identity.DeviceID,
		DeviceType: meta.DeviceType,
		SessionID:  sessionID,
		TokenID:    token.TokenID,
		IssuedAt:   token.IssuedAt,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:            token,
		Identity:         identity,
		SessionID:        sessionID,
		PreviousDeviceID: handled.PreviousDeviceID,
	}, nil
}

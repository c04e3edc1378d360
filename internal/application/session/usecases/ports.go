package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/goroutine"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

// DecodedToken is what the validator reads from a credential. DeviceID and
// Platform are empty for tokens that were not bound to a device when issued.
type DecodedToken struct {
	IssuedAt time.Time
	DeviceID string
	Platform session.Platform
}

// TokenDecoder verifies presented credential material and reads its claims.
type TokenDecoder interface {
	Decode(token string) (*DecodedToken, error)
}

type TokenRequest struct {
	UserID    uint
	SessionID string
	DeviceID  string
	Platform  session.Platform
}

type IssuedToken struct {
	Token     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenIssuer interface {
	IssueToken(req TokenRequest) (*IssuedToken, error)
}

// Metrics receives counters for logins, invalidations and decisions.
type Metrics interface {
	ObserveDecision(platform, rule string, allowed bool)
	ObserveLogin(platform string)
	ObserveInvalidation(platform string)
}

type nopMetrics struct{}

// NopMetrics discards all observations.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) ObserveDecision(string, string, bool) {}
func (nopMetrics) ObserveLogin(string)                  {}
func (nopMetrics) ObserveInvalidation(string)           {}

// BackgroundRunner runs side effects that must not hold up the caller.
type BackgroundRunner func(name string, fn func(ctx context.Context))

const backgroundTimeout = 10 * time.Second

// AsyncRunner runs each task in its own panic-safe goroutine with a detached,
// time-bounded context.
func AsyncRunner(log logger.Interface) BackgroundRunner {
	return func(name string, fn func(ctx context.Context)) {
		goroutine.SafeGoWithTimeout(log, name, backgroundTimeout, fn)
	}
}

// InlineRunner runs tasks on the calling goroutine.
func InlineRunner(ctx context.Context) BackgroundRunner {
	return func(_ string, fn func(ctx context.Context)) {
		fn(context.WithoutCancel(ctx))
	}
}

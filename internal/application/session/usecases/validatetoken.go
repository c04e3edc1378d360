package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/biztime"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

type ValidateCommand struct {
	UserID   uint
	Token    string
	Metadata session.RequestMetadata
	// Platform forces the platform for API clients; empty means resolve
	// from Metadata.
	Platform session.Platform
}

// Decision is the outcome of one validation together with the rule that
// produced it.
type Decision struct {
	Allowed  bool
	Rule     string
	Platform session.Platform
	DeviceID string
}

type ValidateTokenUseCase struct {
	tracker *session.Tracker
	decoder TokenDecoder
	policy  Policy
	rules   []rule
	metrics Metrics
	now     biztime.Clock
	logger  logger.Interface
}

func NewValidateTokenUseCase(
	tracker *session.Tracker,
	decoder TokenDecoder,
	policy Policy,
	metrics Metrics,
	now biztime.Clock,
	logger logger.Interface,
) *ValidateTokenUseCase {
	return &ValidateTokenUseCase{
		tracker: tracker,
		decoder: decoder,
		policy:  policy,
		rules:   policy.rules(),
		metrics: metrics,
		now:     now,
		logger:  logger,
	}
}

// Execute decides whether the presented token is still the legitimate
// credential for its device. It never fails: store errors count as missing
// data and decode errors are resolved per platform.
func (uc *ValidateTokenUseCase) Execute(ctx context.Context, cmd ValidateCommand) Decision {
	identity := ResolveIdentity(cmd.Metadata, cmd.Platform)

	f := &facts{
		ctx:      ctx,
		tracker:  uc.tracker,
		logger:   uc.logger,
		userID:   cmd.UserID,
		identity: identity,
		now:      uc.now(),
	}

	decoded, err := uc.decoder.Decode(cmd.Token)
	if err != nil {
		uc.logger.Debugw("token decode failed",
			"user_id", cmd.UserID,
			"platform", identity.Platform,
			"error", err,
		)
	} else {
		f.issuedAt = decoded.IssuedAt
		f.decoded = true
		f.bound = session.DeviceIdentity{Platform: decoded.Platform, DeviceID: decoded.DeviceID}
	}

	pointer, err := uc.tracker.CurrentDevice(ctx, cmd.UserID, identity.Platform)
	if err != nil {
		uc.logger.Warnw("failed to read current device, treating as untracked",
			"user_id", cmd.UserID,
			"platform", identity.Platform,
			"error", err,
		)
	}
	f.pointer = pointer

	decision := Decision{
		Allowed:  true,
		Rule:     RuleDefault,
		Platform: identity.Platform,
		DeviceID: identity.DeviceID,
	}
	for _, r := range uc.rules {
		if r.applies(f) {
			decision.Allowed = r.allow(f, r.grace)
			decision.Rule = r.name
			break
		}
	}

	uc.metrics.ObserveDecision(identity.Platform.String(), decision.Rule, decision.Allowed)
	if !decision.Allowed {
		uc.logger.Infow("token rejected",
			"user_id", cmd.UserID,
			"platform", identity.Platform,
			"device_id", identity.DeviceID,
			"current_device_id", pointer,
			"rule", decision.Rule,
		)
	}

	return decision
}

// ResolveIdentity resolves the device of a request, honouring an explicit
// API platform.
func ResolveIdentity(meta session.RequestMetadata, platform session.Platform) session.DeviceIdentity {
	if platform == session.PlatformAPI {
		return session.ResolveAPIDevice(meta.DeviceID)
	}
	return session.ResolveDevice(meta)
}

// memo caches one lookup for the lifetime of a validation.
type memo[T any] struct {
	loaded bool
	value  T
	ok     bool
}

func (m *memo[T]) get(load func() (T, bool)) (T, bool) {
	if !m.loaded {
		m.value, m.ok = load()
		m.loaded = true
	}
	return m.value, m.ok
}

// facts is what the rule table sees of one request. Cache lookups are lazy
// so a decision touches only the keys its rule needs.
type facts struct {
	ctx      context.Context
	tracker  *session.Tracker
	logger   logger.Interface
	userID   uint
	identity session.DeviceIdentity
	issuedAt time.Time
	decoded  bool
	// bound is the device the token was issued to, zero for unbound tokens.
	bound   session.DeviceIdentity
	now     time.Time
	pointer string

	own           memo[*session.Entry]
	current       memo[*session.Entry]
	ownIssued     memo[time.Time]
	cutoff        memo[time.Time]
	pointerIssued memo[time.Time]
}

func (f *facts) platform() session.Platform {
	return f.identity.Platform
}

func (f *facts) isCurrentDevice() bool {
	return f.pointer != "" && f.pointer == f.identity.DeviceID
}

func (f *facts) hasOtherCurrentDevice() bool {
	return f.pointer != "" && f.pointer != f.identity.DeviceID
}

// foreignDevice reports a request presenting a token issued to another
// device, or a native device id inside another platform's namespace.
func (f *facts) foreignDevice() bool {
	if !f.platform().OwnsDeviceID(f.identity.DeviceID) {
		return true
	}
	if !f.decoded || f.bound.DeviceID == "" {
		return false
	}
	if f.bound.Platform != "" && f.bound.Platform != f.identity.Platform {
		return true
	}
	return f.bound.DeviceID != f.identity.DeviceID
}

func (f *facts) age() time.Duration {
	return f.now.Sub(f.issuedAt)
}

// ownEntry returns this device's Session Entry. known is false when the
// store could not answer, so a miss can be told apart from an outage.
func (f *facts) ownEntry() (*session.Entry, bool) {
	return f.own.get(func() (*session.Entry, bool) {
		entry, err := f.tracker.Entry(f.ctx, f.userID, f.identity.DeviceID)
		if err != nil {
			f.logLookupError("session entry", err)
			return nil, false
		}
		return entry, true
	})
}

func (f *facts) pointerEntry() *session.Entry {
	entry, _ := f.current.get(func() (*session.Entry, bool) {
		entry, err := f.tracker.Entry(f.ctx, f.userID, f.pointer)
		if err != nil {
			f.logLookupError("current device entry", err)
			return nil, false
		}
		return entry, entry != nil
	})
	return entry
}

func (f *facts) ownIssuedAt() (time.Time, bool) {
	return f.ownIssued.get(func() (time.Time, bool) {
		return f.deviceIssuedAt(f.identity.DeviceID)
	})
}

// platformCutoff is only ever set for the app platform.
func (f *facts) platformCutoff() (time.Time, bool) {
	return f.cutoff.get(func() (time.Time, bool) {
		if f.platform() != session.PlatformApp {
			return time.Time{}, false
		}
		cutoff, ok, err := f.tracker.PlatformCutoff(f.ctx, f.userID, f.platform())
		if err != nil {
			f.logLookupError("platform cutoff", err)
			return time.Time{}, false
		}
		return cutoff, ok
	})
}

// effectiveCutoff returns the most specific time a token for deviceID must
// not predate: the device's own token timestamp, else the platform cutoff.
func (f *facts) effectiveCutoff(deviceID string) (time.Time, bool) {
	var issued time.Time
	var ok bool
	if deviceID == f.identity.DeviceID {
		issued, ok = f.ownIssuedAt()
	} else {
		issued, ok = f.pointerIssued.get(func() (time.Time, bool) {
			return f.deviceIssuedAt(deviceID)
		})
	}
	if ok {
		return issued, true
	}
	return f.platformCutoff()
}

// supersededOnOwnDevice reports whether this device has since been issued a
// token more than grace newer than the presented one.
func (f *facts) supersededOnOwnDevice(grace time.Duration) bool {
	newest, ok := f.ownIssuedAt()
	if !ok {
		return false
	}
	return newest.Sub(f.issuedAt) > grace
}

func (f *facts) deviceIssuedAt(deviceID string) (time.Time, bool) {
	issued, ok, err := f.tracker.TokenIssuedAt(f.ctx, f.userID, deviceID)
	if err != nil {
		f.logLookupError("token timestamp", err)
		return time.Time{}, false
	}
	return issued, ok
}

func (f *facts) logLookupError(what string, err error) {
	f.logger.Warnw("session lookup failed, treating as missing",
		"lookup", what,
		"user_id", f.userID,
		"device_id", f.identity.DeviceID,
		"error", err,
	)
}

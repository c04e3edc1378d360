package usecases

import (
	"time"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/config"
)

// Rule names reported with every decision.
const (
	RuleDeviceMismatch      = "device_mismatch"
	RuleCurrentDevice       = "current_device"
	RulePlatformCutoff      = "platform_cutoff"
	RuleCrossPlatform       = "cross_platform"
	RuleSessionRevoked      = "session_revoked"
	RuleSupersededByCurrent = "superseded_by_current"
	RuleUntracked           = "untracked"
	RuleDecodeFailure       = "decode_failure"
	RuleDefault             = "default"
)

// Policy holds the grace windows of the validity policy.
type Policy struct {
	// FreshTokenGrace: a current-device web token younger than this is always accepted.
	FreshTokenGrace time.Duration
	// DeviceTokenGrace: how far a token may predate its own device's newest token.
	DeviceTokenGrace time.Duration
	// PlatformCutoffGrace: how far an app token may predate the platform
	// cutoff, and for how long after the cutoff that lag is tolerated.
	PlatformCutoffGrace time.Duration
	// CrossDeviceGrace: how far a token may predate the current device's token.
	CrossDeviceGrace time.Duration
	// CutoffTokenOffset and CutoffClockOffset place a new app cutoff at
	// min(issued_at - CutoffTokenOffset, now - CutoffClockOffset).
	CutoffTokenOffset time.Duration
	CutoffClockOffset time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		FreshTokenGrace:     30 * time.Second,
		DeviceTokenGrace:    10 * time.Second,
		PlatformCutoffGrace: 60 * time.Second,
		CrossDeviceGrace:    60 * time.Second,
		CutoffTokenOffset:   time.Second,
		CutoffClockOffset:   2 * time.Second,
	}
}

// NewPolicy builds a policy from configuration. Unset windows keep their defaults.
func NewPolicy(cfg config.SessionPolicyConfig) Policy {
	p := DefaultPolicy()
	setIfPositive(&p.FreshTokenGrace, cfg.FreshTokenGrace)
	setIfPositive(&p.DeviceTokenGrace, cfg.DeviceTokenGrace)
	setIfPositive(&p.PlatformCutoffGrace, cfg.PlatformCutoffGrace)
	setIfPositive(&p.CrossDeviceGrace, cfg.CrossDeviceGrace)
	setIfPositive(&p.CutoffTokenOffset, cfg.CutoffTokenOffset)
	setIfPositive(&p.CutoffClockOffset, cfg.CutoffClockOffset)
	return p
}

func setIfPositive(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// PlatformCutoff returns the invalidation cutoff for a login whose token was
// issued at issuedAt. The new token always stays at or after the cutoff and
// the cutoff is never in the future.
func (p Policy) PlatformCutoff(issuedAt, now time.Time) time.Time {
	byClock := now.Add(-p.CutoffClockOffset)
	if issuedAt.IsZero() {
		return byClock
	}
	byToken := issuedAt.Add(-p.CutoffTokenOffset)
	if byToken.Before(byClock) {
		return byToken
	}
	return byClock
}

// rule is one row of the decision table. Rows are evaluated in order and the
// first row that applies decides.
type rule struct {
	name    string
	grace   time.Duration
	applies func(f *facts) bool
	allow   func(f *facts, grace time.Duration) bool
}

func (p Policy) rules() []rule {
	return []rule{
		{
			name:    RuleDeviceMismatch,
			applies: func(f *facts) bool { return f.foreignDevice() },
			allow:   func(*facts, time.Duration) bool { return false },
		},
		{
			name:    RuleCurrentDevice,
			grace:   p.DeviceTokenGrace,
			applies: func(f *facts) bool { return f.isCurrentDevice() },
			allow: func(f *facts, grace time.Duration) bool {
				if f.platform().Lenient() {
					return true
				}
				if !f.decoded {
					return false
				}
				if f.age() <= p.FreshTokenGrace {
					return true
				}
				if entry, known := f.ownEntry(); known && entry == nil {
					// signed out on this device
					return false
				}
				return !f.supersededOnOwnDevice(grace)
			},
		},
		{
			name:  RulePlatformCutoff,
			grace: p.PlatformCutoffGrace,
			applies: func(f *facts) bool {
				if f.platform() != session.PlatformApp || !f.decoded {
					return false
				}
				cutoff, ok := f.platformCutoff()
				return ok && f.issuedAt.Before(cutoff)
			},
			allow: func(f *facts, grace time.Duration) bool {
				cutoff, _ := f.platformCutoff()
				if cutoff.Sub(f.issuedAt) > grace {
					return false
				}
				// The lag is tolerated only while the cutoff may still be
				// propagating. Past that window even a token within grace of
				// the cutoff is rejected, so a superseded app device is
				// eventually cut off instead of living on indefinitely.
				return f.now.Sub(cutoff) <= grace
			},
		},
		{
			name:  RuleCrossPlatform,
			grace: p.DeviceTokenGrace,
			applies: func(f *facts) bool {
				if !f.hasOtherCurrentDevice() {
					return false
				}
				entry := f.pointerEntry()
				return entry != nil && entry.Platform != f.platform()
			},
			allow: func(f *facts, grace time.Duration) bool {
				if !f.decoded {
					return f.platform().Lenient()
				}
				return !f.supersededOnOwnDevice(grace)
			},
		},
		{
			name: RuleSessionRevoked,
			applies: func(f *facts) bool {
				if f.platform().Lenient() || !f.hasOtherCurrentDevice() {
					return false
				}
				entry, known := f.ownEntry()
				return known && entry == nil
			},
			allow: func(*facts, time.Duration) bool { return false },
		},
		{
			name:  RuleSupersededByCurrent,
			grace: p.CrossDeviceGrace,
			applies: func(f *facts) bool {
				return f.decoded && f.hasOtherCurrentDevice()
			},
			allow: func(f *facts, grace time.Duration) bool {
				cutoff, ok := f.effectiveCutoff(f.pointer)
				if !ok {
					return true
				}
				return cutoff.Sub(f.issuedAt) <= grace
			},
		},
		{
			name:    RuleUntracked,
			applies: func(f *facts) bool { return f.decoded && f.pointer == "" },
			allow:   func(*facts, time.Duration) bool { return true },
		},
		{
			name:    RuleDecodeFailure,
			applies: func(f *facts) bool { return !f.decoded },
			allow:   func(f *facts, _ time.Duration) bool { return f.platform().Lenient() },
		},
	}
}

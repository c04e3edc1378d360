package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/sessiongate/internal/domain/session"
)

const userID uint = 42

func TestValidate_ScenarioA_FreshWebLogin(t *testing.T) {
	h := newHarness(t)
	token := h.loginAt(t, 0, userID, webMeta("s1"))

	decision := h.validateAt(5*time.Second, userID, token, webMeta("s1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleCurrentDevice, decision.Rule)
	assert.Equal(t, session.PlatformWeb, decision.Platform)
	assert.Equal(t, "web_s1", decision.DeviceID)

	decision = h.validateAt(40*time.Second, userID, token, webMeta("s1"))
	assert.True(t, decision.Allowed, "a token matching its device timestamp stays valid after the fresh grace")
}

func TestValidate_ScenarioB_SecondAppDeviceCutsOffFirst(t *testing.T) {
	h := newHarness(t)
	first := h.loginAt(t, 0, userID, appMeta("A1"))
	second := h.loginAt(t, 100*time.Second, userID, appMeta("A2"))

	decision := h.validateAt(150*time.Second, userID, first, appMeta("A1"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RulePlatformCutoff, decision.Rule)

	decision = h.validateAt(150*time.Second, userID, second, appMeta("A2"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleCurrentDevice, decision.Rule)

	cutoff, ok, err := h.tracker.PlatformCutoff(context.Background(), userID, session.PlatformApp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, baseTime.Add(98*time.Second), cutoff)
}

func TestValidate_ScenarioC_WebAndAppCoexist(t *testing.T) {
	h := newHarness(t)
	webToken := h.loginAt(t, 0, userID, webMeta("s1"))
	appToken := h.loginAt(t, 5*time.Second, userID, appMeta("A1"))

	assert.True(t, h.validateAt(45*time.Second, userID, webToken, webMeta("s1")).Allowed)
	assert.True(t, h.validateAt(45*time.Second, userID, appToken, appMeta("A1")).Allowed)
	assert.Empty(t, h.metrics.invalidations)
}

func TestValidate_ScenarioD_SecondBrowserRevokesFirst(t *testing.T) {
	h := newHarness(t)
	first := h.loginAt(t, 0, userID, webMeta("s1"))
	second := h.loginAt(t, 10*time.Second, userID, webMeta("s2"))

	decision := h.validateAt(15*time.Second, userID, first, webMeta("s1"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleSessionRevoked, decision.Rule)

	decision = h.validateAt(15*time.Second, userID, second, webMeta("s2"))
	assert.True(t, decision.Allowed)

	assert.Equal(t, []string{"s2"}, h.webs.ids())

	superseded := h.audits.byDevice("web_s1")
	require.Len(t, superseded, 1)
	assert.Equal(t, session.AuditStatusExpired, superseded[0].Status)

	assert.Equal(t, 1, h.metrics.decisions["web/session_revoked/false"])
	assert.Equal(t, 2, h.metrics.logins["web"])
	assert.Equal(t, 1, h.metrics.invalidations["web"])
}

func TestValidate_CrossPlatformIndependence(t *testing.T) {
	t.Run("web login keeps app token", func(t *testing.T) {
		h := newHarness(t)
		appToken := h.loginAt(t, 0, userID, appMeta("A1"))
		h.loginAt(t, 50*time.Second, userID, webMeta("s1"))

		decision := h.validateAt(55*time.Second, userID, appToken, appMeta("A1"))
		assert.True(t, decision.Allowed)
		assert.Equal(t, RuleCurrentDevice, decision.Rule)

		_, ok, err := h.tracker.PlatformCutoff(context.Background(), userID, session.PlatformApp)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("app login keeps web token", func(t *testing.T) {
		h := newHarness(t)
		webToken := h.loginAt(t, 0, userID, webMeta("s1"))
		h.loginAt(t, 50*time.Second, userID, appMeta("A1"))

		decision := h.validateAt(100*time.Second, userID, webToken, webMeta("s1"))
		assert.True(t, decision.Allowed)
		assert.Equal(t, []string{"s1"}, h.webs.ids())
	})
}

func TestValidate_TokenBoundToIssuingDevice(t *testing.T) {
	h := newHarness(t)
	webToken := h.loginAt(t, 0, userID, webMeta("s1"))
	h.loginAt(t, 5*time.Second, userID, webMeta("s2"))
	first := h.loginAt(t, 10*time.Second, userID, appMeta("A1"))
	h.loginAt(t, 110*time.Second, userID, appMeta("A2"))

	decision := h.validateAt(10*time.Hour, userID, first, appMeta("A1"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RulePlatformCutoff, decision.Rule)

	decision = h.validateAt(10*time.Hour, userID, first, appMeta("A2"))
	assert.False(t, decision.Allowed, "another device's headers must not revive a superseded token")
	assert.Equal(t, RuleDeviceMismatch, decision.Rule)

	decision = h.validateAt(10*time.Hour, userID, webToken, appMeta("A2"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleDeviceMismatch, decision.Rule)

	decision = h.validateAt(10*time.Hour, userID, webToken, webMeta("s2"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleDeviceMismatch, decision.Rule)
}

func TestValidate_UnboundTokenFollowsRequestDevice(t *testing.T) {
	h := newHarness(t)
	h.loginAt(t, 0, userID, appMeta("A1"))
	issued, err := h.tokens.IssueToken(TokenRequest{UserID: userID})
	require.NoError(t, err)

	decision := h.validateAt(time.Minute, userID, issued.Token, appMeta("A1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleCurrentDevice, decision.Rule)
}

func TestValidate_NativeDeviceInBrowserNamespace(t *testing.T) {
	h := newHarness(t)
	webToken := h.loginAt(t, 0, userID, webMeta("s1"))

	h.clock.at(60 * time.Second)
	_, err := h.loginUC.Execute(context.Background(), LoginCommand{UserID: userID, Metadata: appMeta("web_s1")})
	require.Error(t, err)

	decision := h.validateAt(120*time.Second, userID, webToken, webMeta("s1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleCurrentDevice, decision.Rule)

	decision = h.validateAt(120*time.Second, userID, "not-a-token", appMeta("web_s1"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleDeviceMismatch, decision.Rule)
}

func TestValidate_AppCutoffToleratesPropagationLagForAWhile(t *testing.T) {
	h := newHarness(t)
	h.loginAt(t, 0, userID, appMeta("A1"))
	late := h.loginAt(t, 90*time.Second, userID, appMeta("A1"))
	h.loginAt(t, 100*time.Second, userID, appMeta("A2"))

	decision := h.validateAt(101*time.Second, userID, late, appMeta("A1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RulePlatformCutoff, decision.Rule)

	decision = h.validateAt(200*time.Second, userID, late, appMeta("A1"))
	assert.False(t, decision.Allowed, "lag tolerance must end once the cutoff has propagated")
	assert.Equal(t, RulePlatformCutoff, decision.Rule)
}

func TestValidate_FreshCurrentWebTokenAlwaysAllowed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.loginAt(t, 0, userID, webMeta("s1"))

	// Contradictory tracking state: a much newer token and no entry.
	require.NoError(t, h.tracker.SetTokenIssuedAt(ctx, userID, "web_s1", baseTime.Add(100*time.Second)))
	require.NoError(t, h.tracker.ForgetEntry(ctx, userID, "web_s1"))

	decision := h.validateAt(20*time.Second, userID, token, webMeta("s1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleCurrentDevice, decision.Rule)
}

func TestValidate_OlderTokenOnSameBrowserRejected(t *testing.T) {
	h := newHarness(t)
	old := h.loginAt(t, 0, userID, webMeta("s1"))
	h.loginAt(t, 20*time.Second, userID, webMeta("s1"))

	decision := h.validateAt(60*time.Second, userID, old, webMeta("s1"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleCurrentDevice, decision.Rule)
}

func TestValidate_DecodeFailure(t *testing.T) {
	tests := []struct {
		name      string
		loginMeta *session.RequestMetadata
		meta      session.RequestMetadata
		allowed   bool
		rule      string
	}{
		{name: "untracked app", meta: appMeta("A9"), allowed: true, rule: RuleDecodeFailure},
		{name: "untracked web", meta: webMeta("s9"), allowed: false, rule: RuleDecodeFailure},
		{name: "current app device", loginMeta: ptr(appMeta("A1")), meta: appMeta("A1"), allowed: true, rule: RuleCurrentDevice},
		{name: "current web device", loginMeta: ptr(webMeta("s1")), meta: webMeta("s1"), allowed: false, rule: RuleCurrentDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.loginMeta != nil {
				h.loginAt(t, 0, userID, *tt.loginMeta)
			}

			decision := h.validateAt(5*time.Second, userID, "not-a-token", tt.meta)
			assert.Equal(t, tt.allowed, decision.Allowed)
			assert.Equal(t, tt.rule, decision.Rule)
		})
	}
}

func TestValidate_UntrackedTokenAllowed(t *testing.T) {
	h := newHarness(t)
	issued, err := h.tokens.IssueToken(TokenRequest{UserID: userID, DeviceID: "web_s1", Platform: session.PlatformWeb})
	require.NoError(t, err)

	decision := h.validateAt(time.Hour, userID, issued.Token, webMeta("s1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleUntracked, decision.Rule)
}

func TestValidate_CrossPlatformPointer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	issued, err := h.tokens.IssueToken(TokenRequest{UserID: userID, DeviceID: "A1", Platform: session.PlatformApp})
	require.NoError(t, err)

	require.NoError(t, h.tracker.SetCurrentDevice(ctx, userID, session.PlatformApp, "X"))
	require.NoError(t, h.tracker.SaveEntry(ctx, &session.Entry{UserID: userID, DeviceID: "X", Platform: session.PlatformWeb}))

	decision := h.validateAt(100*time.Second, userID, issued.Token, appMeta("A1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleCrossPlatform, decision.Rule)

	require.NoError(t, h.tracker.SetTokenIssuedAt(ctx, userID, "A1", baseTime.Add(20*time.Second)))
	decision = h.validateAt(100*time.Second, userID, issued.Token, appMeta("A1"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleCrossPlatform, decision.Rule)
}

func TestValidate_CrossPlatformPointerDecodeFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.tracker.SetCurrentDevice(ctx, userID, session.PlatformWeb, "web_x"))
	require.NoError(t, h.tracker.SaveEntry(ctx, &session.Entry{UserID: userID, DeviceID: "web_x", Platform: session.PlatformApp}))
	require.NoError(t, h.tracker.SetCurrentDevice(ctx, userID, session.PlatformApp, "X"))
	require.NoError(t, h.tracker.SaveEntry(ctx, &session.Entry{UserID: userID, DeviceID: "X", Platform: session.PlatformWeb}))

	decision := h.validateAt(time.Minute, userID, "not-a-token", webMeta("s1"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleCrossPlatform, decision.Rule)

	decision = h.validateAt(time.Minute, userID, "not-a-token", appMeta("A1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleCrossPlatform, decision.Rule)
}

func TestValidate_SupersededByCurrentWithoutCutoff(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	old, err := h.tokens.IssueToken(TokenRequest{UserID: userID, DeviceID: "A1", Platform: session.PlatformApp})
	require.NoError(t, err)
	h.clock.at(50 * time.Second)
	recent, err := h.tokens.IssueToken(TokenRequest{UserID: userID, DeviceID: "A1", Platform: session.PlatformApp})
	require.NoError(t, err)

	require.NoError(t, h.tracker.SetCurrentDevice(ctx, userID, session.PlatformApp, "A2"))
	require.NoError(t, h.tracker.SaveEntry(ctx, &session.Entry{UserID: userID, DeviceID: "A2", Platform: session.PlatformApp}))
	require.NoError(t, h.tracker.SetTokenIssuedAt(ctx, userID, "A2", baseTime.Add(100*time.Second)))

	decision := h.validateAt(120*time.Second, userID, old.Token, appMeta("A1"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleSupersededByCurrent, decision.Rule)

	decision = h.validateAt(120*time.Second, userID, recent.Token, appMeta("A1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleSupersededByCurrent, decision.Rule)
}

func TestValidate_APIClientsReplaceEachOther(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.clock.at(0)
	first, err := h.loginUC.Execute(ctx, LoginCommand{UserID: userID, Metadata: session.RequestMetadata{DeviceID: "ci"}, Platform: session.PlatformAPI})
	require.NoError(t, err)
	assert.Equal(t, "api_ci", first.Identity.DeviceID)

	h.clock.at(100 * time.Second)
	second, err := h.loginUC.Execute(ctx, LoginCommand{UserID: userID, Metadata: session.RequestMetadata{DeviceID: "cd"}, Platform: session.PlatformAPI})
	require.NoError(t, err)
	assert.Equal(t, "api_ci", second.PreviousDeviceID)

	h.clock.at(150 * time.Second)
	decision := h.validateUC.Execute(ctx, ValidateCommand{UserID: userID, Token: first.Token.Token, Metadata: session.RequestMetadata{DeviceID: "ci"}, Platform: session.PlatformAPI})
	assert.False(t, decision.Allowed)
	assert.Equal(t, RuleSessionRevoked, decision.Rule)

	decision = h.validateUC.Execute(ctx, ValidateCommand{UserID: userID, Token: second.Token.Token, Metadata: session.RequestMetadata{DeviceID: "cd"}, Platform: session.PlatformAPI})
	assert.True(t, decision.Allowed)

	_, ok, err := h.tracker.PlatformCutoff(ctx, userID, session.PlatformAPI)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidate_StoreOutageFailsOpen(t *testing.T) {
	clock := &testClock{now: baseTime}
	h := newHarnessWithStore(t, clock, failingStore{})

	_, err := h.loginUC.Execute(context.Background(), LoginCommand{UserID: userID, Metadata: webMeta("s1")})
	require.Error(t, err, "cache writes gate the login")

	issued, err := h.tokens.IssueToken(TokenRequest{UserID: userID, DeviceID: "web_s1", Platform: session.PlatformWeb})
	require.NoError(t, err)

	decision := h.validateAt(time.Minute, userID, issued.Token, webMeta("s1"))
	assert.True(t, decision.Allowed)
	assert.Equal(t, RuleUntracked, decision.Rule)

	assert.True(t, h.validateAt(time.Minute, userID, "garbage", appMeta("A1")).Allowed)
	assert.False(t, h.validateAt(time.Minute, userID, "garbage", webMeta("s1")).Allowed)
}

func TestRegisterLogin_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cmd := RegisterLoginCommand{
		UserID:        userID,
		Platform:      session.PlatformApp,
		DeviceID:      "A1",
		DeviceType:    "android",
		TokenIssuedAt: baseTime,
		IPAddress:     "10.0.0.2",
	}

	_, err := h.register.Execute(ctx, cmd)
	require.NoError(t, err)
	firstEntry, err := h.tracker.Entry(ctx, userID, "A1")
	require.NoError(t, err)
	firstIssued, _, err := h.tracker.TokenIssuedAt(ctx, userID, "A1")
	require.NoError(t, err)

	result, err := h.register.Execute(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, "A1", result.PreviousDeviceID)

	secondEntry, err := h.tracker.Entry(ctx, userID, "A1")
	require.NoError(t, err)
	secondIssued, _, err := h.tracker.TokenIssuedAt(ctx, userID, "A1")
	require.NoError(t, err)
	current, err := h.tracker.CurrentDevice(ctx, userID, session.PlatformApp)
	require.NoError(t, err)

	assert.Equal(t, firstEntry, secondEntry)
	assert.True(t, firstIssued.Equal(secondIssued))
	assert.Equal(t, "A1", current)
}

func TestRegisterLogin_RejectsBadInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.register.Execute(ctx, RegisterLoginCommand{Platform: session.PlatformWeb, DeviceID: "web_s1"})
	assert.Error(t, err)

	_, err = h.register.Execute(ctx, RegisterLoginCommand{UserID: userID, Platform: "tv", DeviceID: "x"})
	assert.Error(t, err)
}

func ptr[T any](v T) *T {
	return &v
}

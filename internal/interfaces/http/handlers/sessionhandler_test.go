package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/sessiongate/internal/application/session/usecases"
	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/interfaces/dto"
	"github.com/orris-inc/sessiongate/internal/interfaces/http/handlers/testutil"
	"github.com/orris-inc/sessiongate/internal/shared/config"
)

// =====================================================================
// Stub service
// =====================================================================

type stubSessionService struct {
	loginResult       *usecases.LoginResult
	loginErr          error
	handleLoginResult *usecases.HandleLoginResult
	handleLoginErr    error
	decision          usecases.Decision
	logoutResult      *usecases.LogoutResult
	logoutAllCount    int64
	entry             *session.Entry
	active            *usecases.ActiveSessions

	lastLogin         *usecases.LoginCommand
	lastEvent         *usecases.AuthenticationEvent
	lastValidate      *usecases.ValidateCommand
	lastLogout        *usecases.LogoutCommand
	lastLogoutAllUser uint
	lastSessionID     string
}

func (s *stubSessionService) Login(ctx context.Context, cmd usecases.LoginCommand) (*usecases.LoginResult, error) {
	s.lastLogin = &cmd
	return s.loginResult, s.loginErr
}

func (s *stubSessionService) HandleLogin(ctx context.Context, event usecases.AuthenticationEvent) (*usecases.HandleLoginResult, error) {
	s.lastEvent = &event
	return s.handleLoginResult, s.handleLoginErr
}

func (s *stubSessionService) Validate(ctx context.Context, cmd usecases.ValidateCommand) usecases.Decision {
	s.lastValidate = &cmd
	return s.decision
}

func (s *stubSessionService) HandleLogout(ctx context.Context, cmd usecases.LogoutCommand) *usecases.LogoutResult {
	s.lastLogout = &cmd
	if s.logoutResult == nil {
		return &usecases.LogoutResult{}
	}
	return s.logoutResult
}

func (s *stubSessionService) LogoutAll(ctx context.Context, userID uint) int64 {
	s.lastLogoutAllUser = userID
	return s.logoutAllCount
}

func (s *stubSessionService) GetActiveSessionInfo(ctx context.Context, userID uint, sessionID string) *session.Entry {
	s.lastSessionID = sessionID
	return s.entry
}

func (s *stubSessionService) ListActiveSessions(ctx context.Context, userID uint) *usecases.ActiveSessions {
	if s.active == nil {
		return &usecases.ActiveSessions{}
	}
	return s.active
}

var testIssuedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func decodeData(t *testing.T, body []byte, target interface{}) testutil.APIResponse {
	t.Helper()
	var resp testutil.APIResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	if target != nil {
		require.NoError(t, json.Unmarshal(resp.Data, target))
	}
	return resp
}

// =====================================================================
// SessionHandler
// =====================================================================

func newTestSessionHandler(svc *stubSessionService) *SessionHandler {
	return NewSessionHandler(svc, config.CookieConfig{Path: "/", SameSite: "Lax"}, testutil.NewMockLogger())
}

func TestSessionHandler_GetCurrent(t *testing.T) {
	t.Run("returns the tracked entry", func(t *testing.T) {
		svc := &stubSessionService{entry: &session.Entry{
			UserID:        7,
			DeviceID:      "web_test-session-id",
			Platform:      session.PlatformWeb,
			SessionID:     "test-session-id",
			TokenIssuedAt: testIssuedAt,
		}}
		h := newTestSessionHandler(svc)

		c, w := testutil.NewTestContext(http.MethodGet, "/api/sessions/current", nil)
		testutil.SetAuthContext(c, 7)
		h.GetCurrent(c)

		require.Equal(t, http.StatusOK, w.Code)
		var entry dto.SessionEntryDTO
		resp := decodeData(t, w.Body.Bytes(), &entry)
		assert.True(t, resp.Success)
		assert.Equal(t, "web_test-session-id", entry.DeviceID)
		assert.Equal(t, "web", entry.Platform)
		assert.Equal(t, "test-session-id", svc.lastSessionID)
	})

	t.Run("404 when nothing is tracked", func(t *testing.T) {
		h := newTestSessionHandler(&stubSessionService{})

		c, w := testutil.NewTestContext(http.MethodGet, "/api/sessions/current", nil)
		testutil.SetAuthContext(c, 7)
		h.GetCurrent(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("401 without auth context", func(t *testing.T) {
		h := newTestSessionHandler(&stubSessionService{})

		c, w := testutil.NewTestContext(http.MethodGet, "/api/sessions/current", nil)
		h.GetCurrent(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSessionHandler_List(t *testing.T) {
	svc := &stubSessionService{active: &usecases.ActiveSessions{
		Current: []*session.Entry{
			{DeviceID: "web_a", Platform: session.PlatformWeb, TokenIssuedAt: testIssuedAt},
			{DeviceID: "phone-1", Platform: session.PlatformApp, TokenIssuedAt: testIssuedAt},
		},
		Open: []*session.AuditRecord{
			{ID: "audit-1", Platform: session.PlatformApp, DeviceID: "phone-1", Status: session.AuditStatusActive, LoginAt: testIssuedAt},
		},
	}}
	h := newTestSessionHandler(svc)

	c, w := testutil.NewTestContext(http.MethodGet, "/api/sessions", nil)
	testutil.SetAuthContext(c, 7)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body dto.ActiveSessionsResponse
	decodeData(t, w.Body.Bytes(), &body)
	require.Len(t, body.Current, 2)
	require.Len(t, body.Open, 1)
	assert.Equal(t, "audit-1", body.Open[0].ID)
	assert.Equal(t, "active", body.Open[0].Status)
}

func TestSessionHandler_Logout(t *testing.T) {
	svc := &stubSessionService{logoutResult: &usecases.LogoutResult{
		Identity: session.DeviceIdentity{Platform: session.PlatformApp, DeviceID: "phone-1"},
		Record:   &session.AuditRecord{ID: "audit-1", Platform: session.PlatformApp, DeviceID: "phone-1", Status: session.AuditStatusLoggedOut},
	}}
	h := newTestSessionHandler(svc)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/auth/logout", nil)
	testutil.SetAuthContext(c, 7)
	testutil.SetDeviceHeaders(c, "phone-1", "ios")
	h.Logout(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastLogout)
	assert.Equal(t, uint(7), svc.lastLogout.UserID)
	assert.Equal(t, "phone-1", svc.lastLogout.Metadata.DeviceID)
	assert.Equal(t, "ios", svc.lastLogout.Metadata.DeviceType)
	assert.Equal(t, "test-session-id", svc.lastLogout.Metadata.SessionID)
	assert.Equal(t, "test-token-id", svc.lastLogout.TokenID)
	assert.Empty(t, svc.lastLogout.Platform)

	var body dto.LogoutResponse
	decodeData(t, w.Body.Bytes(), &body)
	assert.Equal(t, "app", body.Platform)
	assert.Equal(t, int64(1), body.SessionsClosed)

	cookie := w.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, "access_token=;"), cookie)
}

func TestSessionHandler_LogoutForcesAPIPlatform(t *testing.T) {
	svc := &stubSessionService{}
	h := newTestSessionHandler(svc)

	c, _ := testutil.NewTestContext(http.MethodPost, "/api/auth/logout", nil)
	testutil.SetAuthContext(c, 7)
	c.Set("platform", "api")
	h.Logout(c)

	require.NotNil(t, svc.lastLogout)
	assert.Equal(t, session.PlatformAPI, svc.lastLogout.Platform)
}

func TestSessionHandler_LogoutAll(t *testing.T) {
	svc := &stubSessionService{logoutAllCount: 3}
	h := newTestSessionHandler(svc)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/auth/logout-all", nil)
	testutil.SetAuthContext(c, 7)
	h.LogoutAll(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(7), svc.lastLogoutAllUser)

	var body dto.LogoutResponse
	decodeData(t, w.Body.Bytes(), &body)
	assert.Equal(t, int64(3), body.SessionsClosed)
}

// =====================================================================
// InternalSessionHandler
// =====================================================================

func TestInternalSessionHandler_CreateSession(t *testing.T) {
	issued := &usecases.IssuedToken{Token: "jwt", TokenID: "tid-1", IssuedAt: testIssuedAt, ExpiresAt: testIssuedAt.Add(time.Hour)}
	phone := session.DeviceIdentity{Platform: session.PlatformApp, DeviceID: "phone-1"}

	tests := []struct {
		name       string
		body       map[string]interface{}
		result     *usecases.LoginResult
		err        error
		wantStatus int
	}{
		{
			name: "issues a token",
			body: map[string]interface{}{"user_id": 7, "device_id": "phone-1", "device_type": "ios"},
			result: &usecases.LoginResult{
				Token:            issued,
				Identity:         phone,
				PreviousDeviceID: "phone-0",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing user id",
			body:       map[string]interface{}{"device_id": "phone-1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown device type",
			body:       map[string]interface{}{"user_id": 7, "device_type": "toaster"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "issuer failure",
			body:       map[string]interface{}{"user_id": 7},
			err:        errors.New("signing failed"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubSessionService{loginResult: tt.result, loginErr: tt.err}
			h := NewInternalSessionHandler(svc, testutil.NewMockLogger())

			c, w := testutil.NewTestContext(http.MethodPost, "/internal/sessions", tt.body)
			h.CreateSession(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var body dto.LoginResponse
			decodeData(t, w.Body.Bytes(), &body)
			assert.Equal(t, "jwt", body.Token)
			assert.Equal(t, "tid-1", body.TokenID)
			assert.Equal(t, "app", body.Platform)
			assert.Equal(t, "phone-0", body.PreviousDeviceID)
			assert.Equal(t, "ios", svc.lastLogin.Metadata.DeviceType)
		})
	}
}

func TestInternalSessionHandler_RegisterSession(t *testing.T) {
	entry := &session.Entry{DeviceID: "web_s1", Platform: session.PlatformWeb, SessionID: "s1", TokenIssuedAt: testIssuedAt}
	svc := &stubSessionService{handleLoginResult: &usecases.HandleLoginResult{
		Entry:            entry,
		PreviousDeviceID: "web_s0",
		Invalidated:      true,
	}}
	h := NewInternalSessionHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/internal/sessions/events", map[string]interface{}{
		"user_id":    7,
		"platform":   "web",
		"device_id":  "web_s1",
		"session_id": "s1",
		"issued_at":  testIssuedAt.Unix(),
	})
	h.RegisterSession(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastEvent)
	assert.True(t, svc.lastEvent.IssuedAt.Equal(testIssuedAt))
	assert.Equal(t, session.PlatformWeb, svc.lastEvent.Platform)

	var body dto.RegisterSessionResponse
	decodeData(t, w.Body.Bytes(), &body)
	assert.True(t, body.Invalidated)
	assert.Equal(t, "web_s0", body.PreviousDeviceID)
	assert.Equal(t, "s1", body.Session.SessionID)
}

func TestInternalSessionHandler_RegisterSessionRejectsUnknownPlatform(t *testing.T) {
	svc := &stubSessionService{}
	h := NewInternalSessionHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/internal/sessions/events", map[string]interface{}{
		"user_id":   7,
		"platform":  "desktop",
		"device_id": "d1",
		"issued_at": testIssuedAt.Unix(),
	})
	h.RegisterSession(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.lastEvent)
}

func TestInternalSessionHandler_ValidateSession(t *testing.T) {
	svc := &stubSessionService{decision: usecases.Decision{
		Allowed:  false,
		Rule:     "platform_cutoff",
		Platform: session.PlatformApp,
		DeviceID: "phone-1",
	}}
	h := NewInternalSessionHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/internal/sessions/validate", map[string]interface{}{
		"user_id":     7,
		"token":       "jwt",
		"device_id":   "phone-1",
		"device_type": "android",
	})
	h.ValidateSession(c)

	// A rejection is still a successful answer.
	require.Equal(t, http.StatusOK, w.Code)
	var body dto.DecisionResponse
	decodeData(t, w.Body.Bytes(), &body)
	assert.False(t, body.Allowed)
	assert.Equal(t, "platform_cutoff", body.Rule)
	assert.Equal(t, "app", body.Platform)
	assert.Equal(t, "jwt", svc.lastValidate.Token)
}

func TestInternalSessionHandler_Logout(t *testing.T) {
	t.Run("single device", func(t *testing.T) {
		svc := &stubSessionService{logoutResult: &usecases.LogoutResult{
			Identity: session.DeviceIdentity{Platform: session.PlatformWeb, DeviceID: "web_s1"},
		}}
		h := NewInternalSessionHandler(svc, testutil.NewMockLogger())

		c, w := testutil.NewTestContext(http.MethodPost, "/internal/sessions/logout", map[string]interface{}{
			"user_id":    7,
			"session_id": "s1",
			"token_id":   "tid-1",
		})
		h.Logout(c)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.lastLogout)
		assert.Equal(t, "tid-1", svc.lastLogout.TokenID)
		assert.Zero(t, svc.lastLogoutAllUser)

		var body dto.LogoutResponse
		decodeData(t, w.Body.Bytes(), &body)
		assert.Equal(t, "web_s1", body.DeviceID)
		assert.Zero(t, body.SessionsClosed)
	})

	t.Run("everywhere", func(t *testing.T) {
		svc := &stubSessionService{logoutAllCount: 2}
		h := NewInternalSessionHandler(svc, testutil.NewMockLogger())

		c, w := testutil.NewTestContext(http.MethodPost, "/internal/sessions/logout", map[string]interface{}{
			"user_id": 7,
			"all":     true,
		})
		h.Logout(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, svc.lastLogout)
		assert.Equal(t, uint(7), svc.lastLogoutAllUser)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthCheck{
			"redis": func(ctx context.Context) error { return nil },
		})
		c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
		h.Health(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"healthy"`)
	})

	t.Run("one failing dependency", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthCheck{
			"redis":    func(ctx context.Context) error { return nil },
			"database": func(ctx context.Context) error { return errors.New("connection refused") },
		})
		c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
		h.Health(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "connection refused")
	})
}

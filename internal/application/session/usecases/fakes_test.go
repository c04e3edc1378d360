package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/infrastructure/cache"
	apperrors "github.com/orris-inc/sessiongate/internal/shared/errors"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// at moves the clock to baseTime plus offset.
func (c *testClock) at(offset time.Duration) {
	c.mu.Lock()
	c.now = baseTime.Add(offset)
	c.mu.Unlock()
}

// fakeTokens issues opaque tokens and remembers their claims. Unknown tokens
// fail to decode.
type fakeTokens struct {
	clock  *testClock
	mu     sync.Mutex
	n      int
	issued map[string]DecodedToken
}

func newFakeTokens(clock *testClock) *fakeTokens {
	return &fakeTokens{clock: clock, issued: map[string]DecodedToken{}}
}

func (f *fakeTokens) IssueToken(req TokenRequest) (*IssuedToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	token := fmt.Sprintf("token-%d-%s", f.n, req.DeviceID)
	iat := f.clock.Now().Truncate(time.Second)
	f.issued[token] = DecodedToken{IssuedAt: iat, DeviceID: req.DeviceID, Platform: req.Platform}
	return &IssuedToken{
		Token:     token,
		TokenID:   fmt.Sprintf("tid-%d", f.n),
		IssuedAt:  iat,
		ExpiresAt: iat.Add(time.Hour),
	}, nil
}

func (f *fakeTokens) Decode(token string) (*DecodedToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	decoded, ok := f.issued[token]
	if !ok {
		return nil, errors.New("malformed token")
	}
	return &decoded, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	records map[string]*session.AuditRecord
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{records: map[string]*session.AuditRecord{}}
}

func (r *fakeAuditRepo) Create(ctx context.Context, record *session.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *fakeAuditRepo) Update(ctx context.Context, record *session.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; !ok {
		return apperrors.NewNotFoundError("session audit not found")
	}
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *fakeAuditRepo) GetByID(ctx context.Context, id string) (*session.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("session audit not found")
	}
	copied := *record
	return &copied, nil
}

// active returns copies of open rows matching keep, newest first.
func (r *fakeAuditRepo) active(keep func(*session.AuditRecord) bool) []*session.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*session.AuditRecord
	for _, record := range r.records {
		if record.IsActive() && keep(record) {
			copied := *record
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LoginAt.After(list[j].LoginAt) })
	return list
}

func (r *fakeAuditRepo) first(list []*session.AuditRecord) (*session.AuditRecord, error) {
	if len(list) == 0 {
		return nil, apperrors.NewNotFoundError("session audit not found")
	}
	return list[0], nil
}

func (r *fakeAuditRepo) FindActiveBySessionID(ctx context.Context, sessionID string) (*session.AuditRecord, error) {
	return r.first(r.active(func(a *session.AuditRecord) bool { return a.SessionID == sessionID }))
}

func (r *fakeAuditRepo) FindActiveByTokenID(ctx context.Context, tokenID string) (*session.AuditRecord, error) {
	return r.first(r.active(func(a *session.AuditRecord) bool { return a.TokenID == tokenID }))
}

func (r *fakeAuditRepo) FindLatestActiveByUserID(ctx context.Context, userID uint) (*session.AuditRecord, error) {
	return r.first(r.active(func(a *session.AuditRecord) bool { return a.UserID == userID }))
}

func (r *fakeAuditRepo) ListActiveByUserID(ctx context.Context, userID uint) ([]*session.AuditRecord, error) {
	return r.active(func(a *session.AuditRecord) bool { return a.UserID == userID }), nil
}

func (r *fakeAuditRepo) ListActiveByDevice(ctx context.Context, userID uint, deviceID string) ([]*session.AuditRecord, error) {
	return r.active(func(a *session.AuditRecord) bool { return a.UserID == userID && a.DeviceID == deviceID }), nil
}

func (r *fakeAuditRepo) ListActiveLoggedInBefore(ctx context.Context, before time.Time, limit int) ([]*session.AuditRecord, error) {
	list := r.active(func(a *session.AuditRecord) bool { return a.LoginAt.Before(before) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// byDevice returns every row of a device regardless of status.
func (r *fakeAuditRepo) byDevice(deviceID string) []*session.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*session.AuditRecord
	for _, record := range r.records {
		if record.DeviceID == deviceID {
			copied := *record
			list = append(list, &copied)
		}
	}
	return list
}

type fakeWebSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*session.WebSession
}

func newFakeWebSessionRepo() *fakeWebSessionRepo {
	return &fakeWebSessionRepo{sessions: map[string]*session.WebSession{}}
}

func (r *fakeWebSessionRepo) Save(ctx context.Context, s *session.WebSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeWebSessionRepo) GetByID(ctx context.Context, id string) (*session.WebSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("web session not found")
	}
	copied := *s
	return &copied, nil
}

func (r *fakeWebSessionRepo) ListByUserID(ctx context.Context, userID uint) ([]*session.WebSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*session.WebSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			copied := *s
			list = append(list, &copied)
		}
	}
	return list, nil
}

func (r *fakeWebSessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeWebSessionRepo) DeleteByUserIDExcept(ctx context.Context, userID uint, keepID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.UserID == userID && id != keepID {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeWebSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeWebSessionRepo) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// failingStore answers every call with an error.
type failingStore struct{}

func (failingStore) Get(context.Context, session.Key) (string, error) {
	return "", errors.New("connection refused")
}

func (failingStore) Put(context.Context, session.Key, string, time.Duration) error {
	return errors.New("connection refused")
}

func (failingStore) Forget(context.Context, session.Key) error {
	return errors.New("connection refused")
}

type recordingMetrics struct {
	mu            sync.Mutex
	decisions     map[string]int
	logins        map[string]int
	invalidations map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		decisions:     map[string]int{},
		logins:        map[string]int{},
		invalidations: map[string]int{},
	}
}

func (m *recordingMetrics) ObserveDecision(platform, rule string, allowed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[fmt.Sprintf("%s/%s/%t", platform, rule, allowed)]++
}

func (m *recordingMetrics) ObserveLogin(platform string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[platform]++
}

func (m *recordingMetrics) ObserveInvalidation(platform string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations[platform]++
}

const trackingTTL = 30 * 24 * time.Hour

// harness wires every use case against in-memory fakes and a pinned clock.
type harness struct {
	clock    *testClock
	store    *cache.MemorySessionStore
	tracker  *session.Tracker
	audits   *fakeAuditRepo
	webs     *fakeWebSessionRepo
	tokens   *fakeTokens
	metrics  *recordingMetrics
	policy   Policy
	recorder *LifecycleRecorder

	register    *RegisterLoginUseCase
	invalidate  *InvalidatePreviousSessionUseCase
	handleLogin *HandleLoginUseCase
	loginUC     *LoginUseCase
	validateUC  *ValidateTokenUseCase
	logoutUC    *LogoutUseCase
	activeUC    *ActiveSessionsUseCase
	expireUC    *ExpireSessionsUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &testClock{now: baseTime}
	store := cache.NewMemorySessionStoreWithClock(clock.Now)
	return newHarnessWithStore(t, clock, store)
}

func newHarnessWithStore(t *testing.T, clock *testClock, store session.Store) *harness {
	t.Helper()
	log := logger.NewNop()
	h := &harness{
		clock:   clock,
		tracker: session.NewTracker(store, trackingTTL),
		audits:  newFakeAuditRepo(),
		webs:    newFakeWebSessionRepo(),
		tokens:  newFakeTokens(clock),
		metrics: newRecordingMetrics(),
		policy:  DefaultPolicy(),
	}
	if mem, ok := store.(*cache.MemorySessionStore); ok {
		h.store = mem
	}

	runner := InlineRunner(context.Background())
	h.recorder = NewLifecycleRecorder(h.audits, trackingTTL, clock.Now, log)
	h.register = NewRegisterLoginUseCase(h.tracker, h.webs, h.recorder, 24*time.Hour, runner, clock.Now, log)
	h.invalidate = NewInvalidatePreviousSessionUseCase(h.tracker, h.webs, h.recorder, h.policy, h.metrics, runner, clock.Now, log)
	h.handleLogin = NewHandleLoginUseCase(h.register, h.invalidate, h.metrics, log)
	h.loginUC = NewLoginUseCase(h.tokens, h.handleLogin, log)
	h.validateUC = NewValidateTokenUseCase(h.tracker, h.tokens, h.policy, h.metrics, clock.Now, log)
	h.logoutUC = NewLogoutUseCase(h.tracker, h.webs, h.recorder, h.policy, clock.Now, log)
	h.activeUC = NewActiveSessionsUseCase(h.tracker, h.audits, log)
	h.expireUC = NewExpireSessionsUseCase(h.recorder, h.webs, clock.Now, log)
	return h
}

func webMeta(sessionID string) session.RequestMetadata {
	return session.RequestMetadata{SessionID: sessionID, IPAddress: "10.0.0.1", UserAgent: "Mozilla/5.0"}
}

func appMeta(deviceID string) session.RequestMetadata {
	return session.RequestMetadata{DeviceID: deviceID, DeviceType: "ios", IPAddress: "10.0.0.2", UserAgent: "App/1.0"}
}

// loginAt logs the user in with the clock set to offset and returns the token.
func (h *harness) loginAt(t *testing.T, offset time.Duration, userID uint, meta session.RequestMetadata) string {
	t.Helper()
	h.clock.at(offset)
	result, err := h.loginUC.Execute(context.Background(), LoginCommand{UserID: userID, Metadata: meta})
	require.NoError(t, err)
	return result.Token.Token
}

func (h *harness) validateAt(offset time.Duration, userID uint, token string, meta session.RequestMetadata) Decision {
	h.clock.at(offset)
	return h.validateUC.Execute(context.Background(), ValidateCommand{UserID: userID, Token: token, Metadata: meta})
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/errors"
)

func newAuditRecord(t *testing.T, userID uint, platform session.Platform, deviceID string, loginAt time.Time) *session.AuditRecord {
	record, err := session.NewAuditRecord(userID, platform, deviceID, loginAt)
	require.NoError(t, err)
	return record
}

func TestSessionAuditRepository_CreateAndClose(t *testing.T) {
	repo := NewSessionAuditRepository(setupTestDB(t))
	ctx := context.Background()
	loginAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	record := newAuditRecord(t, 7, session.PlatformWeb, "web_s1", loginAt)
	record.SessionID = "s1"
	record.TokenID = "tok-1"
	require.NoError(t, repo.Create(ctx, record))

	found, err := repo.FindActiveBySessionID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
	assert.Equal(t, session.PlatformWeb, found.Platform)

	found, err = repo.FindActiveByTokenID(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)

	found.Close(loginAt.Add(10*time.Minute), session.AuditStatusLoggedOut)
	require.NoError(t, repo.Update(ctx, found))

	stored, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, session.AuditStatusLoggedOut, stored.Status)
	require.NotNil(t, stored.DurationSeconds)
	assert.Equal(t, int64(600), *stored.DurationSeconds)
	require.NotNil(t, stored.LogoutAt)

	_, err = repo.FindActiveBySessionID(ctx, "s1")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSessionAuditRepository_UpdateMissing(t *testing.T) {
	repo := NewSessionAuditRepository(setupTestDB(t))
	record := newAuditRecord(t, 7, session.PlatformApp, "A1", time.Now().UTC())

	err := repo.Update(context.Background(), record)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSessionAuditRepository_ActiveQueries(t *testing.T) {
	repo := NewSessionAuditRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first := newAuditRecord(t, 7, session.PlatformApp, "A1", base)
	second := newAuditRecord(t, 7, session.PlatformApp, "A1", base.Add(time.Hour))
	web := newAuditRecord(t, 7, session.PlatformWeb, "web_s1", base.Add(2*time.Hour))
	other := newAuditRecord(t, 8, session.PlatformApp, "B1", base)
	for _, r := range []*session.AuditRecord{first, second, web, other} {
		require.NoError(t, repo.Create(ctx, r))
	}

	latest, err := repo.FindLatestActiveByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, web.ID, latest.ID)

	all, err := repo.ListActiveByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byDevice, err := repo.ListActiveByDevice(ctx, 7, "A1")
	require.NoError(t, err)
	require.Len(t, byDevice, 2)
	assert.Equal(t, second.ID, byDevice[0].ID)

	stale, err := repo.ListActiveLoggedInBefore(ctx, base.Add(30*time.Minute), 10)
	require.NoError(t, err)
	assert.Len(t, stale, 2)

	limited, err := repo.ListActiveLoggedInBefore(ctx, base.Add(3*time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditRecord(t *testing.T) {
	loginAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	record, err := NewAuditRecord(7, PlatformWeb, "web_s1", loginAt)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, AuditStatusActive, record.Status)
	assert.Nil(t, record.LogoutAt)

	_, err = NewAuditRecord(0, PlatformWeb, "web_s1", loginAt)
	assert.Error(t, err)

	_, err = NewAuditRecord(7, Platform("tv"), "x", loginAt)
	assert.Error(t, err)
}

func TestAuditRecord_Close(t *testing.T) {
	loginAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	record, err := NewAuditRecord(7, PlatformApp, "A1", loginAt)
	require.NoError(t, err)

	record.Close(loginAt.Add(90*time.Minute), AuditStatusLoggedOut)
	require.NotNil(t, record.DurationSeconds)
	assert.Equal(t, int64(5400), *record.DurationSeconds)
	assert.Equal(t, AuditStatusLoggedOut, record.Status)

	// A second close keeps the first logout.
	record.Close(loginAt.Add(3*time.Hour), AuditStatusExpired)
	assert.Equal(t, int64(5400), *record.DurationSeconds)
	assert.Equal(t, AuditStatusLoggedOut, record.Status)
}

func TestAuditRecord_CloseClampsNegativeDuration(t *testing.T) {
	loginAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	record, err := NewAuditRecord(7, PlatformApp, "A1", loginAt)
	require.NoError(t, err)

	record.Close(loginAt.Add(-time.Minute), AuditStatusExpired)
	assert.Equal(t, int64(0), *record.DurationSeconds)
}

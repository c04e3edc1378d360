package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionMetrics_ObserveDecision(t *testing.T) {
	m := NewSessionMetrics("sessiongate")

	m.ObserveDecision("web", "current_device", true)
	m.ObserveDecision("web", "current_device", true)
	m.ObserveDecision("app", "platform_cutoff", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("web", "current_device", OutcomeAllow)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("app", "platform_cutoff", OutcomeReject)))
}

func TestSessionMetrics_Handler(t *testing.T) {
	m := NewSessionMetrics("sessiongate")
	m.ObserveLogin("app")
	m.ObserveInvalidation("app")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sessiongate_logins_total{platform="app"} 1`)
	assert.Contains(t, string(body), `sessiongate_invalidations_total{platform="app"} 1`)
}

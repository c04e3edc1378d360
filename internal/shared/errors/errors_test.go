package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAppError_UnwrapsAuthErrors(t *testing.T) {
	err := fmt.Errorf("middleware: %w", NewSessionExpiredError())

	appErr := GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeSessionExpired, appErr.Type)
	assert.Equal(t, StatusSessionExpired, appErr.Code)
}

func TestSessionSupersededError(t *testing.T) {
	err := NewSessionSupersededError()

	assert.Equal(t, http.StatusUnauthorized, err.Code)
	assert.False(t, ShouldLogAuthError(err))
	assert.True(t, ShouldLogAuthError(NewTokenInvalidError("access token")))
	assert.True(t, ShouldLogAuthError(fmt.Errorf("plain")))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(fmt.Errorf("lookup: %w", NewNotFoundError("audit record not found"))))
	assert.False(t, IsNotFoundError(NewValidationError("bad")))
	assert.Nil(t, GetAppError(nil))
}

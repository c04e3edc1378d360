package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// StatusSessionExpired is the non-standard status browsers receive when their
// session was closed. Frontends treat it as "reload and log in again".
const StatusSessionExpired = 419

const (
	ErrorTypeTokenInvalid      ErrorType = "token_invalid"
	ErrorTypeSessionExpired    ErrorType = "session_expired"
	ErrorTypeSessionSuperseded ErrorType = "session_superseded"
)

// AuthError represents authentication-specific errors
type AuthError struct {
	*AppError
	// ShouldLog is false for expected failures such as a normal expiry
	ShouldLog bool
}

func (e *AuthError) Error() string {
	return e.AppError.Error()
}

func (e *AuthError) Unwrap() error {
	return e.AppError
}

// NewTokenInvalidError creates an error for tokens that fail verification
func NewTokenInvalidError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenInvalid,
			Message: fmt.Sprintf("Invalid %s", tokenType),
			Code:    http.StatusUnauthorized,
			Details: "Token is invalid or has been revoked",
		},
		ShouldLog: true,
	}
}

// NewSessionExpiredError is returned to browsers whose web session was closed
func NewSessionExpiredError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeSessionExpired,
			Message: "Session has expired",
			Code:    StatusSessionExpired,
			Details: "Please login again",
		},
	}
}

// NewSessionSupersededError is returned to app and API clients whose token
// belongs to a device that is no longer the active one for its platform
func NewSessionSupersededError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeSessionSuperseded,
			Message: "Session is no longer active",
			Code:    http.StatusUnauthorized,
			Details: "You have signed in on another device",
		},
	}
}

// GetAuthError extracts AuthError from error chain
func GetAuthError(err error) *AuthError {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// ShouldLogAuthError returns true if the authentication error should be logged
func ShouldLogAuthError(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.ShouldLog
	}
	return true
}

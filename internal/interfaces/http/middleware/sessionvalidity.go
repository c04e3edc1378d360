package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/sessiongate/internal/application/session/usecases"
	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/constants"
	"github.com/orris-inc/sessiongate/internal/shared/errors"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
	"github.com/orris-inc/sessiongate/internal/shared/utils"
)

type SessionValidator interface {
	Validate(ctx context.Context, cmd usecases.ValidateCommand) usecases.Decision
}

// SessionValidityMiddleware rejects tokens that were superseded by a newer
// login on the same platform. It must run after AuthMiddleware.
type SessionValidityMiddleware struct {
	validator SessionValidator
	logger    logger.Interface
}

func NewSessionValidityMiddleware(validator SessionValidator, logger logger.Interface) *SessionValidityMiddleware {
	return &SessionValidityMiddleware{
		validator: validator,
		logger:    logger,
	}
}

func (m *SessionValidityMiddleware) RequireValidSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(constants.ContextKeyUserID)
		if userID == 0 {
			utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("authentication required"))
			c.Abort()
			return
		}

		decision := m.validator.Validate(c.Request.Context(), usecases.ValidateCommand{
			UserID:   userID,
			Token:    c.GetString(constants.ContextKeyToken),
			Metadata: RequestMetadata(c),
			Platform: RequestPlatform(c),
		})

		if !decision.Allowed {
			if decision.Platform == session.PlatformWeb {
				utils.ErrorResponseWithError(c, errors.NewSessionExpiredError())
			} else {
				utils.ErrorResponseWithError(c, errors.NewSessionSupersededError())
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyDeviceID, decision.DeviceID)
		c.Next()
	}
}

// RequestMetadata collects what the request says about its client: device
// headers plus the session id claim set by AuthMiddleware.
func RequestMetadata(c *gin.Context) session.RequestMetadata {
	return session.RequestMetadata{
		DeviceID:   c.GetHeader(constants.HeaderDeviceID),
		DeviceType: c.GetHeader(constants.HeaderDeviceType),
		SessionID:  c.GetString(constants.ContextKeySessionID),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
}

// RequestPlatform returns the API platform for tokens issued to API clients
// and "" otherwise, letting the device headers decide between web and app.
func RequestPlatform(c *gin.Context) session.Platform {
	if session.Platform(c.GetString(constants.ContextKeyPlatform)) == session.PlatformAPI {
		return session.PlatformAPI
	}
	return ""
}

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/sessiongate/internal/interfaces/http/handlers"
	"github.com/orris-inc/sessiongate/internal/interfaces/http/middleware"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

// InternalRouteConfig holds dependencies for the service-to-service API.
type InternalRouteConfig struct {
	InternalSessionHandler *handlers.InternalSessionHandler
	InternalToken          string
	Logger                 logger.Interface
}

// SetupInternalRoutes configures the API the surrounding application calls.
// It is guarded by a shared X-Internal-Token.
func SetupInternalRoutes(engine *gin.Engine, cfg *InternalRouteConfig) {
	internal := engine.Group("/internal")
	internal.Use(middleware.InternalToken(cfg.InternalToken, cfg.Logger))
	{
		sessions := internal.Group("/sessions")
		sessions.POST("", cfg.InternalSessionHandler.CreateSession)
		sessions.POST("/events", cfg.InternalSessionHandler.RegisterSession)
		sessions.POST("/validate", cfg.InternalSessionHandler.ValidateSession)
		sessions.POST("/logout", cfg.InternalSessionHandler.Logout)
	}
}

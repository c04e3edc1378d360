package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/sessiongate/internal/interfaces/http/handlers"
	"github.com/orris-inc/sessiongate/internal/interfaces/http/middleware"
)

// SessionRouteConfig holds dependencies for the signed-in user's session routes.
type SessionRouteConfig struct {
	SessionHandler     *handlers.SessionHandler
	AuthMiddleware     *middleware.AuthMiddleware
	ValidityMiddleware *middleware.SessionValidityMiddleware
	RateLimiter        *middleware.RateLimiter // nil disables rate limiting
}

// SetupSessionRoutes configures the user-facing session routes. Every route
// requires a token that is still the current credential of its platform.
func SetupSessionRoutes(engine *gin.Engine, cfg *SessionRouteConfig) {
	api := engine.Group("/api")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Limit())
	}
	api.Use(cfg.AuthMiddleware.RequireAuth(), cfg.ValidityMiddleware.RequireValidSession())
	{
		api.GET("/sessions", cfg.SessionHandler.List)
		api.GET("/sessions/current", cfg.SessionHandler.GetCurrent)

		api.POST("/auth/logout", cfg.SessionHandler.Logout)
		api.POST("/auth/logout-all", cfg.SessionHandler.LogoutAll)
	}
}

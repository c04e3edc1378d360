package http

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orris-inc/sessiongate/internal/infrastructure/config"
	"github.com/orris-inc/sessiongate/internal/interfaces/http/middleware"
	"github.com/orris-inc/sessiongate/internal/interfaces/http/routes"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	*Container
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Router, error) {
	container, err := NewContainer(db, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Router{Container: container}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Logger(r.log))
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/health", r.healthHandler.Health)
	if r.sessionMetrics != nil {
		r.engine.GET(r.cfg.Metrics.Path, gin.WrapH(r.sessionMetrics.Handler()))
	}

	routes.SetupInternalRoutes(r.engine, &routes.InternalRouteConfig{
		InternalSessionHandler: r.internalSessionHandler,
		InternalToken:          r.cfg.Server.InternalToken,
		Logger:                 r.log,
	})

	routes.SetupSessionRoutes(r.engine, &routes.SessionRouteConfig{
		SessionHandler:     r.sessionHandler,
		AuthMiddleware:     r.authMiddleware,
		ValidityMiddleware: r.validityMiddleware,
		RateLimiter:        r.rateLimiter,
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// StartScheduler starts the background jobs.
func (r *Router) StartScheduler() {
	r.schedulerManager.Start()
}

// Shutdown stops background jobs and releases the cache connection.
func (r *Router) Shutdown() {
	if r.schedulerManager != nil {
		if err := r.schedulerManager.Stop(); err != nil {
			r.log.Errorw("failed to stop scheduler", "error", err)
		}
	}

	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			r.log.Errorw("failed to close Redis connection", "error", err)
		}
	}
}

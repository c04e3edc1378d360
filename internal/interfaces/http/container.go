package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	sessionApp "github.com/orris-inc/sessiongate/internal/application/session"
	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/infrastructure/adapters"
	"github.com/orris-inc/sessiongate/internal/infrastructure/auth"
	"github.com/orris-inc/sessiongate/internal/infrastructure/cache"
	"github.com/orris-inc/sessiongate/internal/infrastructure/config"
	"github.com/orris-inc/sessiongate/internal/infrastructure/metrics"
	"github.com/orris-inc/sessiongate/internal/infrastructure/repository"
	"github.com/orris-inc/sessiongate/internal/infrastructure/scheduler"
	"github.com/orris-inc/sessiongate/internal/interfaces/http/handlers"
	"github.com/orris-inc/sessiongate/internal/interfaces/http/middleware"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
)

const (
	storeRedis  = "redis"
	storeMemory = "memory"
)

// Container holds the infrastructure, the session service, handlers and
// background jobs, and knows how to shut them down.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	// Session tracking
	sessionStore   session.Store
	jwtSvc         *auth.JWTService
	sessionMetrics *metrics.SessionMetrics
	sessionService *sessionApp.Service

	// Handlers
	sessionHandler         *handlers.SessionHandler
	internalSessionHandler *handlers.InternalSessionHandler
	healthHandler          *handlers.HealthHandler

	// Middlewares
	authMiddleware     *middleware.AuthMiddleware
	validityMiddleware *middleware.SessionValidityMiddleware
	rateLimiter        *middleware.RateLimiter

	// Background jobs
	schedulerManager *scheduler.SchedulerManager
}

// NewContainer creates a Container with all dependencies wired together.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	// Section 1: Infrastructure - session store, token service, metrics
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Session - service, handlers, middlewares
	c.initSession()

	// Section 3: Scheduler - stale audit expiry
	if err := c.initScheduler(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) initInfrastructure() error {
	switch c.cfg.Session.Store {
	case storeMemory:
		c.log.Warnw("using in-process session store; tracking is not shared between instances")
		c.sessionStore = cache.NewMemorySessionStore()
	case storeRedis, "":
		client, err := initRedis(c.cfg, c.log)
		if err != nil {
			return err
		}
		c.redis = client
		c.sessionStore = cache.NewRedisSessionStore(client, c.cfg.Session.KeyPrefix)
	default:
		return fmt.Errorf("unsupported session store %q", c.cfg.Session.Store)
	}

	c.jwtSvc = auth.NewJWTService(c.cfg.Auth.JWT.Secret, c.cfg.Auth.JWT.AccessExpMinutes, c.cfg.Auth.JWT.AppExpDays)

	if c.cfg.Metrics.Enabled {
		c.sessionMetrics = metrics.NewSessionMetrics(c.cfg.Metrics.Namespace)
	}
	return nil
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Infow("Redis connection established successfully")

	return redisClient, nil
}

func (c *Container) initSession() {
	deps := sessionApp.Dependencies{
		Store:       c.sessionStore,
		Audits:      repository.NewSessionAuditRepository(c.db),
		WebSessions: repository.NewWebSessionRepository(c.db),
		Tokens:      adapters.NewSessionTokenAdapter(c.jwtSvc),
		Config:      c.cfg.Session,
		Logger:      c.log,
	}
	// A nil *SessionMetrics must not end up inside the interface.
	if c.sessionMetrics != nil {
		deps.Metrics = c.sessionMetrics
	}
	c.sessionService = sessionApp.NewService(deps)

	c.sessionHandler = handlers.NewSessionHandler(c.sessionService, c.cfg.Auth.Cookie, c.log)
	c.internalSessionHandler = handlers.NewInternalSessionHandler(c.sessionService, c.log)
	c.healthHandler = handlers.NewHealthHandler(c.healthChecks())

	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtSvc, c.log)
	c.validityMiddleware = middleware.NewSessionValidityMiddleware(c.sessionService, c.log)
	if c.redis != nil && c.cfg.Server.RateLimitPerMinute > 0 {
		c.rateLimiter = middleware.NewRateLimiter(c.redis, c.cfg.Session.KeyPrefix, c.cfg.Server.RateLimitPerMinute, time.Minute, c.log)
	}
}

func (c *Container) healthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}
	}
	return checks
}

func (c *Container) initScheduler() error {
	manager, err := scheduler.NewSchedulerManager(c.log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterSessionExpiryJob(c.sessionService, c.cfg.Session.ExpirySweepInterval); err != nil {
		return fmt.Errorf("failed to register session expiry job: %w", err)
	}
	c.schedulerManager = manager
	return nil
}

// SessionService exposes the engine for in-process callers.
func (c *Container) SessionService() *sessionApp.Service {
	return c.sessionService
}

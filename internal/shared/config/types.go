package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// InternalToken guards the /internal API used by the surrounding application.
	InternalToken string `mapstructure:"internal_token"`
	// RateLimitPerMinute caps /api requests per client IP; zero disables it.
	// Only enforced with the redis session store.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
	AppExpDays       int    `mapstructure:"app_exp_days"`
}

type CookieConfig struct {
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}

type AuthConfig struct {
	JWT    JWTConfig    `mapstructure:"jwt"`
	Cookie CookieConfig `mapstructure:"cookie"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SessionPolicyConfig holds the tunable windows of the token validity policy.
type SessionPolicyConfig struct {
	FreshTokenGrace     time.Duration `mapstructure:"fresh_token_grace"`
	DeviceTokenGrace    time.Duration `mapstructure:"device_token_grace"`
	PlatformCutoffGrace time.Duration `mapstructure:"platform_cutoff_grace"`
	CrossDeviceGrace    time.Duration `mapstructure:"cross_device_grace"`
	CutoffTokenOffset   time.Duration `mapstructure:"cutoff_token_offset"`
	CutoffClockOffset   time.Duration `mapstructure:"cutoff_clock_offset"`
}

type SessionConfig struct {
	// Store selects the tracking backend: "redis" or "memory".
	Store       string              `mapstructure:"store"`
	KeyPrefix   string              `mapstructure:"key_prefix"`
	TrackingTTL time.Duration       `mapstructure:"tracking_ttl"`
	WebExpDays  int                 `mapstructure:"web_exp_days"`
	Policy      SessionPolicyConfig `mapstructure:"policy"`
	// ExpirySweepInterval controls the stale audit row sweep; zero disables it.
	ExpirySweepInterval time.Duration `mapstructure:"expiry_sweep_interval"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

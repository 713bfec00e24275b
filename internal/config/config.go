// Package config holds the deployment configuration for the identity service.
// Values come from a YAML file, IDENTITY_* environment variables, and a few
// explicitly bound plain variables (JWT_SECRET) that are shared contracts with
// the other platform services.
package config

import (
	"fmt"
	"time"

	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

// Config holds the application's configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	MFA      MFAConfig      `mapstructure:"mfa"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	PprofEnabled bool          `mapstructure:"pprof_enabled"`
}

// DatabaseConfig configures the shared Postgres pool.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders the Postgres connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig configures the shared cache store used by the fallback auth
// manager.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
}

// JWTConfig configures the token codec. Secret is the shared signing secret
// every deployed service must agree on; it has no default in production.
type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
}

// MFAConfig configures the TOTP subsystem.
type MFAConfig struct {
	Issuer string `mapstructure:"issuer"`
	// Window is the TOTP tolerance in 30-second steps to either side.
	Window int `mapstructure:"window"`
}

// FallbackConfig configures the degraded-mode auth path.
type FallbackConfig struct {
	EnableCache      bool          `mapstructure:"enable_cache"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	AllowOfflineMode bool          `mapstructure:"allow_offline_mode"`
	MaxOfflineAge    time.Duration `mapstructure:"max_offline_age"`
	CacheOpTimeout   time.Duration `mapstructure:"cache_op_timeout"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required (set JWT_SECRET)")
	}
	if c.JWT.AccessTokenTTL <= 0 {
		return fmt.Errorf("jwt.access_token_ttl must be positive")
	}
	if c.JWT.RefreshTokenTTL <= 0 {
		return fmt.Errorf("jwt.refresh_token_ttl must be positive")
	}
	if c.MFA.Window < 0 {
		return fmt.Errorf("mfa.window must not be negative")
	}
	if c.Fallback.MaxOfflineAge < c.Fallback.CacheTTL {
		return fmt.Errorf("fallback.max_offline_age must not be shorter than fallback.cache_ttl")
	}
	return nil
}

// applyDefaults backfills zero values with the platform defaults.
func (c *Config) applyDefaults() {
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = constants.JWTIssuer
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = constants.JWTAudience
	}
	if c.MFA.Issuer == "" {
		c.MFA.Issuer = constants.MFADefaultIssuer
	}
	if c.Fallback.CacheTTL == 0 {
		c.Fallback.CacheTTL = constants.FallbackCacheDefaultTTL
	}
	if c.Fallback.MaxOfflineAge == 0 {
		c.Fallback.MaxOfflineAge = constants.FallbackMaxOfflineAge
	}
	if c.Fallback.CacheOpTimeout == 0 {
		c.Fallback.CacheOpTimeout = constants.FallbackCacheOpTimeout
	}
}

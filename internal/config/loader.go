package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

// Load reads the configuration from file and environment variables.
//
// Precedence, lowest to highest: built-in defaults, config.yaml, IDENTITY_*
// environment variables. JWT_SECRET, REDIS_URL-style plain variables used by
// the rest of the platform are bound explicitly so this service honors the
// same contract as the Node services it replaces.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 6020)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "beauty")
	v.SetDefault("database.database", "beauty_platform")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.dial_timeout", "2s")
	v.SetDefault("redis.read_timeout", "2s")
	v.SetDefault("redis.write_timeout", "2s")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("jwt.access_token_ttl", constants.AccessTokenDefaultTTL.String())
	v.SetDefault("jwt.refresh_token_ttl", constants.RefreshTokenDefaultTTL.String())

	v.SetDefault("mfa.window", constants.MFADefaultWindow)

	v.SetDefault("fallback.enable_cache", true)
	v.SetDefault("fallback.allow_offline_mode", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/beauty-identity/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("IDENTITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Shared-contract variables used by every platform service.
	_ = v.BindEnv("jwt.secret", "IDENTITY_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("redis.addr", "IDENTITY_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("database.password", "IDENTITY_DATABASE_PASSWORD", "DATABASE_PASSWORD")
	_ = v.BindEnv("mfa.issuer", "IDENTITY_MFA_ISSUER", "MFA_ISSUER")
	_ = v.BindEnv("mfa.window", "IDENTITY_MFA_WINDOW", "MFA_WINDOW")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the console service
type Config struct {
	ListenAddr string
	AppEnv     string
	API        APIConfig
	Session    SessionConfig
	Redis      RedisConfig
	Notify     NotifyConfig
	Log        LogConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
}

// APIConfig describes the upstream airline REST API
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig selects the edit-session store backend
type SessionConfig struct {
	Backend string
	TTL     time.Duration
}

// RedisConfig is only read when Session.Backend is "redis"
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NotifyConfig controls toast behaviour
type NotifyConfig struct {
	Duration time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// CORSConfig holds allowed origins for the console
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig bounds mutations per browser client
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":3000")
	v.SetDefault("app_env", "development")
	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("notify.duration", "3s")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/airops")
	v.AddConfigPath(".")

	if configPath := os.Getenv("AIROPS_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("AIROPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		ListenAddr: v.GetString("listen_addr"),
		AppEnv:     v.GetString("app_env"),
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api.base_url"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Session: SessionConfig{
			Backend: strings.ToLower(v.GetString("session.backend")),
			TTL:     v.GetDuration("session.ttl"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Notify: NotifyConfig{
			Duration: v.GetDuration("notify.duration"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("rate_limit.rps"),
			Burst: v.GetInt("rate_limit.burst"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}

	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", cfg.API.BaseURL)
	}

	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be greater than 0")
	}

	switch cfg.Session.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when session.backend is redis")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be memory or redis)", cfg.Session.Backend)
	}

	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be greater than 0")
	}

	if cfg.Notify.Duration <= 0 {
		return fmt.Errorf("notify.duration must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	if cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.rps and rate_limit.burst must be greater than 0")
	}

	return nil
}

package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Every request runs as DefaultUserID
	AuthModeLocal AuthMode = "local" // Local user database with bearer tokens and sessions
)

type (
	Config struct {
		HTTP
		Global
		Log
		Database
		Tasks
		Auth
		Fetcher
		Redis
		Audit
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Log struct {
		Level  string // debug, info, warn, error
		Pretty bool   // Human-readable console output
	}
	Database struct {
		Path     string
		LogLevel string // gorm logger level: silent, error, warn, info
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		Mode            AuthMode
		JWTSecret       string
		TokenExpiry     time.Duration
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		LockoutThreshold int           // Failed logins before the account is locked (default: 5)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Fetcher struct {
		Timeout           time.Duration
		UserAgent         string
		RequestsPerSecond float64
		MaxBodyBytes      int64
	}
	Redis struct {
		Addr        string // Empty disables the tag count cache
		Password    string
		DB          int
		TagCountTTL time.Duration
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_level", "warn")

	// Auth defaults
	v.SetDefault("auth_mode", "local")
	v.SetDefault("auth_jwt_secret", "")          // Auto-generated if empty
	v.SetDefault("auth_token_expiry", "720h")    // 30 days
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_lockout_threshold", 5)
	v.SetDefault("auth_lockout_duration", "30m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "30s")
	v.SetDefault("task_timeout", "2m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Page fetcher defaults
	v.SetDefault("fetcher_timeout", "15s")
	v.SetDefault("fetcher_user_agent", DefaultUserAgent)
	v.SetDefault("fetcher_requests_per_second", 2)
	v.SetDefault("fetcher_max_body_bytes", 5<<20)

	// Redis defaults
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_tag_count_ttl", "10m")

	// Audit defaults
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			JWTSecret:        v.GetString("AUTH_JWT_SECRET"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			LockoutThreshold: v.GetInt("AUTH_LOCKOUT_THRESHOLD"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Fetcher: Fetcher{
			Timeout:           v.GetDuration("FETCHER_TIMEOUT"),
			UserAgent:         v.GetString("FETCHER_USER_AGENT"),
			RequestsPerSecond: v.GetFloat64("FETCHER_REQUESTS_PER_SECOND"),
			MaxBodyBytes:      v.GetInt64("FETCHER_MAX_BODY_BYTES"),
		},
		Redis: Redis{
			Addr:        v.GetString("REDIS_ADDR"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DB:          v.GetInt("REDIS_DB"),
			TagCountTTL: v.GetDuration("REDIS_TAG_COUNT_TTL"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Worker       WorkerConfig
	RateLimit    RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"asset-service"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr            string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password        string `env:"REDIS_PASSWORD"`
	DB              int    `env:"REDIS_DB" envDefault:"0"`
	SettingsTTLSecs int    `env:"REDIS_SETTINGS_TTL_SECONDS" envDefault:"300"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters. The Bootstrap fields seed the first administrator
// when no user exists yet.
type AuthConfig struct {
	JWTSecret              string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes  int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
	BcryptCost             int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`
	BootstrapAdminEmail    string `env:"AUTH_BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"AUTH_BOOTSTRAP_ADMIN_PASSWORD"`
	BootstrapUnitCode      string `env:"AUTH_BOOTSTRAP_UNIT_CODE" envDefault:"HQ"`
	BootstrapUnitName      string `env:"AUTH_BOOTSTRAP_UNIT_NAME" envDefault:"Headquarters"`
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string `env:"NOTIFY_EMAIL_FROM" envDefault:"noreply@example.com"`
	WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
}

// WorkerConfig controls the background cron jobs.
type WorkerConfig struct {
	Enabled          bool   `env:"WORKER_ENABLED" envDefault:"true"`
	DepreciationCron string `env:"DEPRECIATION_CRON" envDefault:"0 2 1 * *"`
	OverdueScanCron  string `env:"OVERDUE_SCAN_CRON" envDefault:"0 7 * * *"`
	LockTTLSeconds   int    `env:"WORKER_LOCK_TTL_SECONDS" envDefault:"900"`
}

// RateLimitConfig throttles login attempts per client address.
type RateLimitConfig struct {
	LoginPerSecond float64 `env:"RATE_LIMIT_LOGIN_PER_SECOND" envDefault:"1"`
	LoginBurst     int     `env:"RATE_LIMIT_LOGIN_BURST" envDefault:"5"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SettingsTTL is how long cached system settings live in Redis.
func (r RedisConfig) SettingsTTL() time.Duration {
	if r.SettingsTTLSecs <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(r.SettingsTTLSecs) * time.Second
}

// LockTTL bounds how long a cron job may hold its Redis lock.
func (w WorkerConfig) LockTTL() time.Duration {
	if w.LockTTLSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(w.LockTTLSeconds) * time.Second
}

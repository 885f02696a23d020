package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orgkit/gatehouse/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Redis counter-store configuration
	Redis RedisConfig `yaml:"redis"`

	// Session validation configuration
	Session SessionConfig `yaml:"session"`

	// Rate-limit profile overrides
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Administrator notification configuration
	Notify NotifyConfig `yaml:"notify"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds the SQL store configuration. Driver is "postgres"
// in production and "sqlite3" for development.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// RedisConfig holds the shared rate-counter store configuration. An
// empty address selects the in-process memory store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SessionConfig holds session token validation settings
type SessionConfig struct {
	Secret string `yaml:"secret"`
}

// RateLimitConfig holds the per-profile policy values and the expired
// record sweep schedule (a cron expression).
type RateLimitConfig struct {
	RecoveryLimit  int           `yaml:"recovery_limit"`
	RecoveryWindow time.Duration `yaml:"recovery_window"`
	AdminLimit     int           `yaml:"admin_limit"`
	AdminWindow    time.Duration `yaml:"admin_window"`
	SweepSchedule  string        `yaml:"sweep_schedule"`
}

// NotifyConfig holds the administrator notification channel. An empty
// webhook URL falls back to log-only notifications.
type NotifyConfig struct {
	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel `yaml:"-"`
	LogLevelName   string                 `yaml:"log_level"`
	MetricsEnabled bool                   `yaml:"metrics_enabled"`

	// AuditEnabled turns on the database security-event log.
	AuditEnabled bool `yaml:"audit_enabled"`
}

// LoadConfig loads configuration from the optional YAML overlay named by
// GATEHOUSE_CONFIG_FILE, then environment variables. Environment wins.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("GATEHOUSE_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.Observability.LogLevel = observability.ParseLogLevel(cfg.Observability.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		RateLimit: RateLimitConfig{
			RecoveryLimit:  5,
			RecoveryWindow: 15 * time.Minute,
			AdminLimit:     10,
			AdminWindow:    time.Minute,
			SweepSchedule:  "@every 1m",
		},
		Observability: ObservabilityConfig{
			LogLevelName:   "info",
			MetricsEnabled: true,
			AuditEnabled:   true,
		},
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("GATEHOUSE_HOST", c.Server.Host)
	c.Server.Port = getEnv("GATEHOUSE_PORT", c.Server.Port)
	c.Server.HealthPort = getEnv("GATEHOUSE_HEALTH_PORT", c.Server.HealthPort)
	c.Server.ReadTimeout = getEnvDuration("GATEHOUSE_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("GATEHOUSE_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("GATEHOUSE_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("GATEHOUSE_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Driver = getEnv("GATEHOUSE_DB_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("GATEHOUSE_DATABASE_URL", c.Database.URL)

	c.Redis.Addr = getEnv("GATEHOUSE_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("GATEHOUSE_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("GATEHOUSE_REDIS_DB", c.Redis.DB)

	c.Session.Secret = getEnv("GATEHOUSE_SESSION_SECRET", c.Session.Secret)

	c.RateLimit.RecoveryLimit = getEnvInt("GATEHOUSE_RECOVERY_LIMIT", c.RateLimit.RecoveryLimit)
	c.RateLimit.RecoveryWindow = getEnvDuration("GATEHOUSE_RECOVERY_WINDOW", c.RateLimit.RecoveryWindow)
	c.RateLimit.AdminLimit = getEnvInt("GATEHOUSE_ADMIN_LIMIT", c.RateLimit.AdminLimit)
	c.RateLimit.AdminWindow = getEnvDuration("GATEHOUSE_ADMIN_WINDOW", c.RateLimit.AdminWindow)
	c.RateLimit.SweepSchedule = getEnv("GATEHOUSE_SWEEP_SCHEDULE", c.RateLimit.SweepSchedule)

	c.Notify.WebhookURL = getEnv("GATEHOUSE_NOTIFY_WEBHOOK_URL", c.Notify.WebhookURL)
	c.Notify.WebhookSecret = getEnv("GATEHOUSE_NOTIFY_WEBHOOK_SECRET", c.Notify.WebhookSecret)

	c.Observability.LogLevelName = getEnv("GATEHOUSE_LOG_LEVEL", c.Observability.LogLevelName)
	c.Observability.MetricsEnabled = getEnvBool("GATEHOUSE_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.AuditEnabled = getEnvBool("GATEHOUSE_AUDIT_ENABLED", c.Observability.AuditEnabled)
}

// Validate checks the configuration for correctness
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}

	if c.RateLimit.RecoveryLimit <= 0 {
		return fmt.Errorf("recovery rate limit must be positive")
	}
	if c.RateLimit.RecoveryWindow <= 0 {
		return fmt.Errorf("recovery rate window must be positive")
	}
	if c.RateLimit.AdminLimit <= 0 {
		return fmt.Errorf("admin rate limit must be positive")
	}
	if c.RateLimit.AdminWindow <= 0 {
		return fmt.Errorf("admin rate window must be positive")
	}
	if c.RateLimit.SweepSchedule == "" {
		return fmt.Errorf("sweep schedule is required")
	}

	return nil
}

// ServerAddr returns the API listen address
func (c *Config) ServerAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// HealthAddr returns the health/metrics listen address
func (c *Config) HealthAddr() string {
	return c.Server.Host + ":" + c.Server.HealthPort
}

// getEnv returns an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

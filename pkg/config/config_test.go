package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orgkit/gatehouse/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}
			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
	}{
		{
			name:         "parses valid duration",
			envValue:     "45s",
			defaultValue: time.Minute,
			want:         45 * time.Second,
		},
		{
			name:         "falls back on invalid duration",
			envValue:     "not-a-duration",
			defaultValue: time.Minute,
			want:         time.Minute,
		},
		{
			name:         "falls back when unset",
			envValue:     "",
			defaultValue: time.Minute,
			want:         time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_DURATION_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
				defer os.Unsetenv(key)
			}
			if got := getEnvDuration(key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvDuration(%q, %v) = %v, want %v", key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GATEHOUSE_DATABASE_URL", "postgres://localhost/gatehouse_test")
	t.Setenv("GATEHOUSE_SESSION_SECRET", "test-secret")
}

// TestLoadConfig_Defaults verifies defaults survive a load with only the
// required settings present.
func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Server.HealthPort != "9090" {
		t.Errorf("Server.HealthPort = %q, want %q", cfg.Server.HealthPort, "9090")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "postgres")
	}
	if cfg.RateLimit.RecoveryLimit != 5 {
		t.Errorf("RateLimit.RecoveryLimit = %d, want 5", cfg.RateLimit.RecoveryLimit)
	}
	if cfg.RateLimit.RecoveryWindow != 15*time.Minute {
		t.Errorf("RateLimit.RecoveryWindow = %v, want 15m", cfg.RateLimit.RecoveryWindow)
	}
	if cfg.RateLimit.AdminLimit != 10 {
		t.Errorf("RateLimit.AdminLimit = %d, want 10", cfg.RateLimit.AdminLimit)
	}
	if cfg.RateLimit.SweepSchedule != "@every 1m" {
		t.Errorf("RateLimit.SweepSchedule = %q, want %q", cfg.RateLimit.SweepSchedule, "@every 1m")
	}
	if cfg.Observability.LogLevel != observability.InfoLevel {
		t.Errorf("Observability.LogLevel = %v, want InfoLevel", cfg.Observability.LogLevel)
	}
}

// TestLoadConfig_EnvOverrides verifies environment variables override
// defaults.
func TestLoadConfig_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GATEHOUSE_PORT", "8181")
	t.Setenv("GATEHOUSE_DB_DRIVER", "sqlite3")
	t.Setenv("GATEHOUSE_RECOVERY_LIMIT", "3")
	t.Setenv("GATEHOUSE_RECOVERY_WINDOW", "5m")
	t.Setenv("GATEHOUSE_LOG_LEVEL", "debug")
	t.Setenv("GATEHOUSE_REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8181" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8181")
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "sqlite3")
	}
	if cfg.RateLimit.RecoveryLimit != 3 {
		t.Errorf("RateLimit.RecoveryLimit = %d, want 3", cfg.RateLimit.RecoveryLimit)
	}
	if cfg.RateLimit.RecoveryWindow != 5*time.Minute {
		t.Errorf("RateLimit.RecoveryWindow = %v, want 5m", cfg.RateLimit.RecoveryWindow)
	}
	if cfg.Observability.LogLevel != observability.DebugLevel {
		t.Errorf("Observability.LogLevel = %v, want DebugLevel", cfg.Observability.LogLevel)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Redis.Addr, "localhost:6379")
	}
}

// TestLoadConfig_FileOverlay verifies the YAML overlay applies under the
// environment.
func TestLoadConfig_FileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gatehouse.yaml")
	content := []byte(`
server:
  port: "7070"
rate_limit:
  admin_limit: 25
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	setRequiredEnv(t)
	t.Setenv("GATEHOUSE_CONFIG_FILE", path)
	// Environment should win over the file.
	t.Setenv("GATEHOUSE_PORT", "7171")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "7171" {
		t.Errorf("Server.Port = %q, want env override %q", cfg.Server.Port, "7171")
	}
	if cfg.RateLimit.AdminLimit != 25 {
		t.Errorf("RateLimit.AdminLimit = %d, want file value 25", cfg.RateLimit.AdminLimit)
	}
}

// TestValidate tests configuration validation failures
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "missing port",
			mutate: func(c *Config) { c.Server.Port = "" },
		},
		{
			name:   "port collision",
			mutate: func(c *Config) { c.Server.HealthPort = c.Server.Port },
		},
		{
			name:   "unsupported driver",
			mutate: func(c *Config) { c.Database.Driver = "oracle" },
		},
		{
			name:   "missing database URL",
			mutate: func(c *Config) { c.Database.URL = "" },
		},
		{
			name:   "missing session secret",
			mutate: func(c *Config) { c.Session.Secret = "" },
		},
		{
			name:   "non-positive recovery limit",
			mutate: func(c *Config) { c.RateLimit.RecoveryLimit = 0 },
		},
		{
			name:   "non-positive admin window",
			mutate: func(c *Config) { c.RateLimit.AdminWindow = 0 },
		},
		{
			name:   "empty sweep schedule",
			mutate: func(c *Config) { c.RateLimit.SweepSchedule = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Database.URL = "postgres://localhost/gatehouse_test"
			cfg.Session.Secret = "secret"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

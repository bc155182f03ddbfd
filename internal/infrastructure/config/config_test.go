package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "0.0.0.0:8000", cfg.Address())

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	// Preview and sandbox config
	assert.Equal(t, 300*time.Millisecond, cfg.Preview.Debounce.Duration)
	assert.Equal(t, 1000, cfg.Preview.ConsoleMaxEntries)
	assert.Equal(t, 5*time.Second, cfg.Sandbox.Timeout.Duration)
	assert.True(t, cfg.Sandbox.Headless)
	assert.Equal(t, 2, cfg.Sandbox.PoolSize)

	// Storage config
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, "minicode-data", cfg.Storage.Key)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                "9000",
		"HOST":                "127.0.0.1",
		"LOG_LEVEL":           "debug",
		"LOG_DEV":             "true",
		"RATE_LIMIT_RPS":      "500",
		"RATE_LIMIT_BURST":    "1000",
		"RATE_LIMIT_ENABLED":  "false",
		"CORS_ORIGINS":        "http://localhost:5173,http://127.0.0.1:5173",
		"PREVIEW_DEBOUNCE":    "150ms",
		"CONSOLE_MAX_ENTRIES": "50",
		"SANDBOX_TIMEOUT":     "2s",
		"SANDBOX_HEADLESS":    "false",
		"SANDBOX_POOL_SIZE":   "4",
		"SANDBOX_MAX_TIMERS":  "10",
		"SANDBOX_MAX_REPEATS": "4",
		"STORAGE_BACKEND":     "sqlite",
		"STORAGE_PATH":        "/tmp/minicode.db",
		"STORAGE_KEY":         "custom",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORS.Origins)
	assert.Equal(t, 150*time.Millisecond, cfg.Preview.Debounce.Duration)
	assert.Equal(t, 50, cfg.Preview.ConsoleMaxEntries)
	assert.Equal(t, 2*time.Second, cfg.Sandbox.Timeout.Duration)
	assert.False(t, cfg.Sandbox.Headless)
	assert.Equal(t, 4, cfg.Sandbox.PoolSize)
	assert.Equal(t, 10, cfg.Sandbox.MaxTimers)
	assert.Equal(t, 4, cfg.Sandbox.MaxRepeats)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/minicode.db", cfg.Storage.Path)
	assert.Equal(t, "custom", cfg.Storage.Key)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 300*time.Millisecond, cfg.Preview.Debounce.Duration)
}

func TestLoadFileFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "minicode.toml",
			content: `
[server]
port = "7000"

[preview]
debounce = "1s"

[sandbox]
headless = false

[storage]
backend = "memory"
`,
		},
		{
			name: "yaml",
			file: "minicode.yaml",
			content: `
server:
  port: "7000"
preview:
  debounce: 1s
sandbox:
  headless: false
storage:
  backend: memory
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, "7000", cfg.Server.Port)
			assert.Equal(t, time.Second, cfg.Preview.Debounce.Duration)
			assert.False(t, cfg.Sandbox.Headless)
			assert.Equal(t, StorageMemory, cfg.Storage.Backend)

			// untouched keys keep their defaults
			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 5*time.Second, cfg.Sandbox.Timeout.Duration)
		})
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minicode.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = \"7000\"\nhost = \"10.0.0.1\"\n"), 0o600))
	t.Setenv("PORT", "7100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Server.Port)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	err := LoadFile(filepath.Join(dir, "missing.toml"), Default())
	assert.ErrorIs(t, err, os.ErrNotExist)

	ini := filepath.Join(dir, "minicode.ini")
	require.NoError(t, os.WriteFile(ini, []byte("port=1"), 0o600))
	assert.ErrorIs(t, LoadFile(ini, Default()), ErrUnsupportedFormat)

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[server\nport = "), 0o600))
	assert.Error(t, LoadFile(broken, Default()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"file without path", func(c *Config) { c.Storage.Path = "" }},
		{"empty key", func(c *Config) { c.Storage.Key = "" }},
		{"zero sandbox timeout", func(c *Config) { c.Sandbox.Timeout = Duration{} }},
		{"negative pool", func(c *Config) { c.Sandbox.PoolSize = -1 }},
		{"rate limit without burst", func(c *Config) { c.RateLimit.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := Default()
	cfg.Storage.Backend = StorageMemory
	cfg.Storage.Path = ""
	assert.NoError(t, cfg.Validate(), "memory backend needs no path")
}

func TestInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("SANDBOX_TIMEOUT", "soon")

	_, err := Load("")
	assert.Error(t, err)
	assert.NotNil(t, LoadOrDefault(), "LoadOrDefault falls back to defaults")
}

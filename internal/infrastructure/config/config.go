package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Storage backend names accepted by STORAGE_BACKEND.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

var (
	// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML
	ErrUnsupportedFormat = errors.New("unsupported config file format")
	// ErrInvalid is returned when a loaded configuration fails validation
	ErrInvalid = errors.New("invalid configuration")
)

// Config holds all application configuration.
// Defaults live in Default so that a config file can sit between them and the environment.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Logging   LogConfig       `toml:"logging" yaml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	CORS      CORSConfig      `toml:"cors" yaml:"cors"`
	Preview   PreviewConfig   `toml:"preview" yaml:"preview"`
	Sandbox   SandboxConfig   `toml:"sandbox" yaml:"sandbox"`
	Storage   StorageConfig   `toml:"storage" yaml:"storage"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port string `envconfig:"PORT" toml:"port" yaml:"port"`
	Host string `envconfig:"HOST" toml:"host" yaml:"host"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development" yaml:"development"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled" yaml:"enabled"`
}

// CORSConfig lists the host UI origins allowed to call the API
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" toml:"origins" yaml:"origins"`
}

// PreviewConfig controls the edit-to-preview pipeline
type PreviewConfig struct {
	Debounce          Duration `envconfig:"PREVIEW_DEBOUNCE" toml:"debounce" yaml:"debounce"`
	ConsoleMaxEntries int      `envconfig:"CONSOLE_MAX_ENTRIES" toml:"console_max_entries" yaml:"console_max_entries"`
}

// SandboxConfig controls headless execution of preview documents
type SandboxConfig struct {
	Timeout      Duration `envconfig:"SANDBOX_TIMEOUT" toml:"timeout" yaml:"timeout"`
	Headless     bool     `envconfig:"SANDBOX_HEADLESS" toml:"headless" yaml:"headless"`
	PoolSize     int      `envconfig:"SANDBOX_POOL_SIZE" toml:"pool_size" yaml:"pool_size"`
	MaxTimers    int      `envconfig:"SANDBOX_MAX_TIMERS" toml:"max_timers" yaml:"max_timers"`
	MaxRepeats   int      `envconfig:"SANDBOX_MAX_REPEATS" toml:"max_repeats" yaml:"max_repeats"`
	MaxCallStack int      `envconfig:"SANDBOX_MAX_CALL_STACK" toml:"max_call_stack" yaml:"max_call_stack"`
}

// StorageConfig selects where the workspace record is kept
type StorageConfig struct {
	Backend string `envconfig:"STORAGE_BACKEND" toml:"backend" yaml:"backend"`
	Path    string `envconfig:"STORAGE_PATH" toml:"path" yaml:"path"`
	Key     string `envconfig:"STORAGE_KEY" toml:"key" yaml:"key"`
}

// Duration is a time.Duration that decodes from strings like "300ms"
// in env vars, TOML and YAML alike.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
		Preview: PreviewConfig{
			Debounce:          Duration{300 * time.Millisecond},
			ConsoleMaxEntries: 1000,
		},
		Sandbox: SandboxConfig{
			Timeout:      Duration{5 * time.Second},
			Headless:     true,
			PoolSize:     2,
			MaxTimers:    1000,
			MaxRepeats:   10,
			MaxCallStack: 1024,
		},
		Storage: StorageConfig{
			Backend: StorageFile,
			Path:    "data",
			Key:     "minicode-data",
		},
	}
}

// Load builds the configuration from defaults, an optional file and the environment,
// in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from the environment or falls back to defaults
func LoadOrDefault() *Config {
	cfg, err := Load("")
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile decodes a TOML or YAML file over cfg. Keys absent from the file keep their values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Validate checks the values that would otherwise fail deep inside the server
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port == "" {
		problems = append(problems, "port must not be empty")
	}
	switch c.Storage.Backend {
	case StorageFile, StorageSQLite:
		if c.Storage.Path == "" {
			problems = append(problems, "storage path is required for the "+c.Storage.Backend+" backend")
		}
	case StorageMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown storage backend %q", c.Storage.Backend))
	}
	if c.Storage.Key == "" {
		problems = append(problems, "storage key must not be empty")
	}
	if c.Preview.Debounce.Duration < 0 {
		problems = append(problems, "preview debounce must not be negative")
	}
	if c.Preview.ConsoleMaxEntries < 0 {
		problems = append(problems, "console max entries must not be negative")
	}
	if c.Sandbox.Timeout.Duration <= 0 {
		problems = append(problems, "sandbox timeout must be positive")
	}
	if c.Sandbox.PoolSize < 0 {
		problems = append(problems, "sandbox pool size must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		problems = append(problems, "rate limit needs positive rps and burst when enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Address returns the listen address
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

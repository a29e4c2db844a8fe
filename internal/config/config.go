package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP API
	ListenAddr  string `envconfig:"HTTP_LISTEN_ADDR" default:":8080"`
	CORSOrigins string `envconfig:"CORS_ORIGINS"`

	// Storage
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"fluxdock.db"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`

	// Dock bounds
	MaxWindows  int `envconfig:"MAX_WINDOWS" default:"30"`
	MaxActivity int `envconfig:"MAX_ACTIVITY" default:"10"`
	MaxUploads  int `envconfig:"MAX_UPLOADS" default:"4"`

	// Launcher
	LaunchDelay time.Duration `envconfig:"LAUNCH_DELAY" default:"300ms"`

	// Stored results (0 keeps them forever)
	ResultTTL       time.Duration `envconfig:"RESULT_TTL" default:"168h"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`

	// Generation (fixture generator is used when no API key is set)
	AnthropicAPIKey string        `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5"`
	GenerateTimeout time.Duration `envconfig:"GENERATE_TIMEOUT" default:"90s"`

	// Host frames replayed to a newly connected UI
	HostBacklog int `envconfig:"HOST_BACKLOG" default:"50"`
}

// IsDevelopment reports whether console logging should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// GeneratorEnabled returns true if an LLM API key is configured.
func (c *Config) GeneratorEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// Validate rejects bounds and drivers the dock cannot run with.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StorageDriver, validation.Required, validation.In(DriverSQLite, DriverPostgres, DriverMemory)),
		validation.Field(&c.SQLitePath, validation.When(c.StorageDriver == DriverSQLite, validation.Required)),
		validation.Field(&c.PostgresDSN, validation.When(c.StorageDriver == DriverPostgres, validation.Required)),
		validation.Field(&c.MaxWindows, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxActivity, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxUploads, validation.Required, validation.Min(1)),
		validation.Field(&c.LaunchDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.ResultTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.CleanupInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.HostBacklog, validation.Min(0)),
	)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadWithPrefix("")
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %q: %w", prefix, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

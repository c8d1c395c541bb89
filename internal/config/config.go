// Package config loads the docpipe service configuration from TOML files and
// DOCPIPE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/trackerzenith/docpipe/pkg/auth"
	"github.com/trackerzenith/docpipe/pkg/database"
	"github.com/trackerzenith/docpipe/pkg/events"
	"github.com/trackerzenith/docpipe/pkg/llm"
	"github.com/trackerzenith/docpipe/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDocpipeEnv             = "DOCPIPE_ENV"
	EnvDocpipeShutdownTimeout = "DOCPIPE_SHUTDOWN_TIMEOUT"
	EnvDocpipeVersion         = "DOCPIPE_VERSION"
	EnvDocpipeLogLevel        = "DOCPIPE_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	URL:             "DOCPIPE_DB_URL",
	Host:            "DOCPIPE_DB_HOST",
	Port:            "DOCPIPE_DB_PORT",
	Name:            "DOCPIPE_DB_NAME",
	User:            "DOCPIPE_DB_USER",
	Password:        "DOCPIPE_DB_PASSWORD",
	SSLMode:         "DOCPIPE_DB_SSL_MODE",
	ApplicationName: "DOCPIPE_DB_APPLICATION_NAME",
	MaxOpenConns:    "DOCPIPE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "DOCPIPE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DOCPIPE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DOCPIPE_DB_CONN_TIMEOUT",
	ConnectAttempts: "DOCPIPE_DB_CONNECT_ATTEMPTS",
}

var storageEnv = &storage.Env{
	Provider:         "DOCPIPE_STORAGE_PROVIDER",
	ContainerName:    "DOCPIPE_STORAGE_CONTAINER_NAME",
	ConnectionString: "DOCPIPE_STORAGE_CONNECTION_STRING",
	AccountURL:       "DOCPIPE_STORAGE_ACCOUNT_URL",
	CredentialsFile:  "DOCPIPE_STORAGE_CREDENTIALS_FILE",
	MaxDownloadSize:  "DOCPIPE_STORAGE_MAX_DOWNLOAD_SIZE",
}

var authEnv = &auth.Env{
	Mode:     "DOCPIPE_AUTH_MODE",
	Secret:   "DOCPIPE_AUTH_SECRET",
	Issuer:   "DOCPIPE_AUTH_ISSUER",
	Audience: "DOCPIPE_AUTH_AUDIENCE",
	JWKSURL:  "DOCPIPE_AUTH_JWKS_URL",
}

var eventsEnv = &events.Env{
	Target:  "DOCPIPE_EVENTS_TARGET",
	Source:  "DOCPIPE_EVENTS_SOURCE",
	Timeout: "DOCPIPE_EVENTS_TIMEOUT",
}

// Config is the root configuration for the docpipe service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	OCR             OCRConfig       `toml:"ocr"`
	Parser          llm.Config      `toml:"parser"`
	Coherence       llm.Config      `toml:"coherence"`
	Events          events.Config   `toml:"events"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
	LogLevel        string          `toml:"log_level"`
}

// Env returns the DOCPIPE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDocpipeEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// SlogLevel returns LogLevel as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadDatabase reads only the database section, for tools that need a
// connection without the rest of the service configuration.
func LoadDatabase() (*database.Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Database.Merge(&overlay.Database)
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	return &cfg.Database, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.OCR.Merge(&overlay.OCR)
	c.Parser.Merge(&overlay.Parser)
	c.Coherence.Merge(&overlay.Coherence)
	c.Events.Merge(&overlay.Events)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.OCR.Finalize(); err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	if c.Parser.Provider == "" {
		c.Parser.Provider = llm.ProviderOpenAI
	}
	if err := c.Parser.Finalize(llmEnv("PARSER")); err != nil {
		return fmt.Errorf("parser: %w", err)
	}
	if err := c.Coherence.Finalize(llmEnv("COHERENCE")); err != nil {
		return fmt.Errorf("coherence: %w", err)
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDocpipeShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvDocpipeVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvDocpipeLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// llmEnv returns the DOCPIPE_<section>_* variable names for an llm.Config section.
func llmEnv(section string) *llm.Env {
	prefix := "DOCPIPE_" + section + "_"
	return &llm.Env{
		Provider:        prefix + "PROVIDER",
		Model:           prefix + "MODEL",
		APIKey:          prefix + "API_KEY",
		BaseURL:         prefix + "BASE_URL",
		Project:         prefix + "PROJECT",
		Region:          prefix + "REGION",
		CredentialsFile: prefix + "CREDENTIALS_FILE",
		Timeout:         prefix + "TIMEOUT",
	}
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvDocpipeEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

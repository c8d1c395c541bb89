package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/trackerzenith/docpipe/pkg/formatting"
)

// Supported storage providers.
const (
	ProviderAzure = "azure"
	ProviderGCS   = "gcs"
)

// Config holds blob storage connection parameters.
type Config struct {
	Provider         string `toml:"provider"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
	CredentialsFile  string `toml:"credentials_file"`
	MaxDownloadSize  string `toml:"max_download_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider         string
	ContainerName    string
	ConnectionString string
	AccountURL       string
	CredentialsFile  string
	MaxDownloadSize  string
}

// MaxDownloadBytes returns MaxDownloadSize as a byte count.
func (c *Config) MaxDownloadBytes() int64 {
	n, err := formatting.ParseBytes(c.MaxDownloadSize)
	if err != nil {
		return 0
	}
	return n
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
	if overlay.CredentialsFile != "" {
		c.CredentialsFile = overlay.CredentialsFile
	}
	if overlay.MaxDownloadSize != "" {
		c.MaxDownloadSize = overlay.MaxDownloadSize
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderAzure
	}
	if c.ContainerName == "" {
		c.ContainerName = "document-uploads"
	}
	if c.MaxDownloadSize == "" {
		c.MaxDownloadSize = "20MB"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
	if env.AccountURL != "" {
		if v := os.Getenv(env.AccountURL); v != "" {
			c.AccountURL = v
		}
	}
	if env.CredentialsFile != "" {
		if v := os.Getenv(env.CredentialsFile); v != "" {
			c.CredentialsFile = v
		}
	}
	if env.MaxDownloadSize != "" {
		if v := os.Getenv(env.MaxDownloadSize); v != "" {
			c.MaxDownloadSize = v
		}
	}
}

func (c *Config) validate() error {
	c.Provider = strings.ToLower(c.Provider)
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if n, err := formatting.ParseBytes(c.MaxDownloadSize); err != nil {
		return fmt.Errorf("invalid max_download_size: %w", err)
	} else if n <= 0 {
		return fmt.Errorf("max_download_size must be positive")
	}

	switch c.Provider {
	case ProviderAzure:
		if c.ConnectionString == "" && c.AccountURL == "" {
			return fmt.Errorf("connection_string or account_url required for azure")
		}
	case ProviderGCS:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	return nil
}

package auth

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Supported verification modes.
const (
	ModeNone  = "none"
	ModeHS256 = "hs256"
	ModeJWKS  = "jwks"
	ModeOIDC  = "oidc"
)

// Config holds bearer token verification settings.
type Config struct {
	Mode       string   `toml:"mode"`
	Secret     string   `toml:"secret"`
	Issuer     string   `toml:"issuer"`
	Audience   string   `toml:"audience"`
	JWKSURL    string   `toml:"jwks_url"`
	Algorithms []string `toml:"algorithms"`
	Leeway     string   `toml:"leeway"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Mode     string
	Secret   string
	Issuer   string
	Audience string
	JWKSURL  string
}

// LeewayDuration returns Leeway as a time.Duration.
func (c *Config) LeewayDuration() time.Duration {
	d, _ := time.ParseDuration(c.Leeway)
	return d
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
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
	if overlay.Algorithms != nil {
		c.Algorithms = overlay.Algorithms
	}
	if overlay.Leeway != "" {
		c.Leeway = overlay.Leeway
	}
}

func (c *Config) loadDefaults() {
	if c.Mode == "" {
		c.Mode = ModeNone
	}
	if len(c.Algorithms) == 0 {
		c.Algorithms = []string{"RS256", "ES256"}
	}
	if c.Leeway == "" {
		c.Leeway = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Mode != "" {
		if v := os.Getenv(env.Mode); v != "" {
			c.Mode = v
		}
	}
	if env.Secret != "" {
		if v := os.Getenv(env.Secret); v != "" {
			c.Secret = v
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.Audience != "" {
		if v := os.Getenv(env.Audience); v != "" {
			c.Audience = v
		}
	}
	if env.JWKSURL != "" {
		if v := os.Getenv(env.JWKSURL); v != "" {
			c.JWKSURL = v
		}
	}
}

func (c *Config) validate() error {
	c.Mode = strings.ToLower(c.Mode)
	if _, err := time.ParseDuration(c.Leeway); err != nil {
		return fmt.Errorf("invalid leeway: %w", err)
	}
	switch c.Mode {
	case ModeNone:
	case ModeHS256:
		if c.Secret == "" {
			return fmt.Errorf("secret required for mode %s", c.Mode)
		}
	case ModeJWKS:
		if c.JWKSURL == "" {
			return fmt.Errorf("jwks_url required for mode %s", c.Mode)
		}
	case ModeOIDC:
		if c.Issuer == "" {
			return fmt.Errorf("issuer required for mode %s", c.Mode)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMode, c.Mode)
	}
	return nil
}

package events

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config configures the CloudEvents sink. An empty Target disables publishing.
type Config struct {
	Target  string `toml:"target"`
	Source  string `toml:"source"`
	Timeout string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Target  string
	Source  string
	Timeout string
}

// Enabled reports whether a sink is configured.
func (c *Config) Enabled() bool {
	return c.Target != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Target != "" {
		c.Target = overlay.Target
	}
	if overlay.Source != "" {
		c.Source = overlay.Source
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.Source == "" {
		c.Source = "docpipe"
	}
	if c.Timeout == "" {
		c.Timeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Target != "" {
		if v := os.Getenv(env.Target); v != "" {
			c.Target = v
		}
	}
	if env.Source != "" {
		if v := os.Getenv(env.Source); v != "" {
			c.Source = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.Target == "" {
		return nil
	}
	u, err := url.Parse(c.Target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid target %q: must be an http(s) url", c.Target)
	}
	return nil
}

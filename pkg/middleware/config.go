package middleware

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	Enabled          *bool    `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv maps CORS config fields to environment variable names for override injection.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	AllowCredentials string
	MaxAge           string
}

// Finalize applies defaults, environment variable overrides, and validation.
// Origins default to the local frontend dev server.
func (c *CORSConfig) Finalize(env *CORSEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// IsEnabled reports whether CORS headers should be applied.
func (c *CORSConfig) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// Merge overwrites fields from overlay. Enabled applies when set; AllowCredentials
// always applies; slice and int fields only apply when non-zero.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	c.AllowCredentials = overlay.AllowCredentials

	if overlay.Origins != nil {
		c.Origins = overlay.Origins
	}
	if overlay.AllowedMethods != nil {
		c.AllowedMethods = overlay.AllowedMethods
	}
	if overlay.AllowedHeaders != nil {
		c.AllowedHeaders = overlay.AllowedHeaders
	}
	if overlay.MaxAge != 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) loadDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.Origins) == 0 {
		c.Origins = []string{"http://localhost:5173"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization", HeaderRequestID}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}
}

func (c *CORSConfig) loadEnv(env *CORSEnv) {
	for name, field := range map[string]*[]string{
		env.Origins:        &c.Origins,
		env.AllowedMethods: &c.AllowedMethods,
		env.AllowedHeaders: &c.AllowedHeaders,
	} {
		if v := getenv(name); v != "" {
			*field = splitList(v)
		}
	}

	if b, err := strconv.ParseBool(getenv(env.Enabled)); err == nil {
		c.Enabled = &b
	}
	if b, err := strconv.ParseBool(getenv(env.AllowCredentials)); err == nil {
		c.AllowCredentials = b
	}
	if n, err := strconv.Atoi(getenv(env.MaxAge)); err == nil {
		c.MaxAge = n
	}
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

func (c *CORSConfig) validate() error {
	if c.AllowCredentials && slices.Contains(c.Origins, "*") {
		return fmt.Errorf("allow_credentials cannot be combined with wildcard origin")
	}
	for _, o := range c.Origins {
		if o != "*" && !strings.Contains(o, "://") {
			return fmt.Errorf("origin %q must include a scheme", o)
		}
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age cannot be negative")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

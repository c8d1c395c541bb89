// Package pagination turns list and search requests into bounded pages.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds what a client may ask for in one request.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`

	// MaxSearchLength caps the free-text search term, in runes.
	MaxSearchLength int `toml:"max_search_length"`
}

// ConfigEnv names the environment variables read by Finalize.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
	MaxSearchLength string
}

// Finalize fills defaults, reads env overrides and validates.
func (c *Config) Finalize(env *ConfigEnv) error {
	defaults := []struct {
		field *int
		value int
	}{
		{&c.DefaultPageSize, 20},
		{&c.MaxPageSize, 100},
		{&c.MaxSearchLength, 200},
	}
	for _, d := range defaults {
		if *d.field <= 0 {
			*d.field = d.value
		}
	}

	if env != nil {
		for name, field := range map[string]*int{
			env.DefaultPageSize: &c.DefaultPageSize,
			env.MaxPageSize:     &c.MaxPageSize,
			env.MaxSearchLength: &c.MaxSearchLength,
		} {
			if name == "" {
				continue
			}
			if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
				*field = n
			}
		}
	}

	switch {
	case c.DefaultPageSize < 1:
		return fmt.Errorf("default_page_size must be positive")
	case c.MaxPageSize < 1:
		return fmt.Errorf("max_page_size must be positive")
	case c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("default_page_size cannot exceed max_page_size")
	case c.MaxSearchLength < 1:
		return fmt.Errorf("max_search_length must be positive")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
	if overlay.MaxSearchLength != 0 {
		c.MaxSearchLength = overlay.MaxSearchLength
	}
}

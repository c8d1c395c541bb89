package openapi

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config is the document metadata not derived from the routes themselves.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`

	// Servers are absolute origins the API is also reachable on, such as a
	// gateway. The base path is appended to each.
	Servers []string `toml:"servers"`
}

// ConfigEnv names the environment variables read by Finalize. Servers is a
// comma-separated list.
type ConfigEnv struct {
	Title       string
	Description string
	Servers     string
}

// Finalize fills defaults, reads env overrides and checks that every server
// is an absolute http(s) URL.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "docpipe API"
	}
	if c.Description == "" {
		c.Description = "Receipt and invoice processing pipeline: ingest, extract, parse, validate, write."
	}

	if env != nil {
		if v := lookup(env.Title); v != "" {
			c.Title = v
		}
		if v := lookup(env.Description); v != "" {
			c.Description = v
		}
		if v := lookup(env.Servers); v != "" {
			c.Servers = nil
			for s := range strings.SplitSeq(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					c.Servers = append(c.Servers, s)
				}
			}
		}
	}

	for _, s := range c.Servers {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid server %q", s)
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay. A non-empty server list
// replaces the base list.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if len(overlay.Servers) > 0 {
		c.Servers = overlay.Servers
	}
}

// Apply sets the description and server list on s. The relative basePath is
// always listed first.
func (c *Config) Apply(s *Spec, basePath string) {
	s.SetDescription(c.Description)
	s.AddServer(basePath)
	for _, origin := range c.Servers {
		s.AddServer(strings.TrimSuffix(origin, "/") + basePath)
	}
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

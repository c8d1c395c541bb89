package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/trackerzenith/docpipe/pkg/middleware"
	"github.com/trackerzenith/docpipe/pkg/openapi"
	"github.com/trackerzenith/docpipe/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "DOCPIPE_CORS_ENABLED",
	Origins:          "DOCPIPE_CORS_ORIGINS",
	AllowedMethods:   "DOCPIPE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "DOCPIPE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "DOCPIPE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "DOCPIPE_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "DOCPIPE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "DOCPIPE_PAGINATION_MAX_PAGE_SIZE",
	MaxSearchLength: "DOCPIPE_PAGINATION_MAX_SEARCH_LENGTH",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "DOCPIPE_OPENAPI_TITLE",
	Description: "DOCPIPE_OPENAPI_DESCRIPTION",
	Servers:     "DOCPIPE_OPENAPI_SERVERS",
}

// APIConfig holds API routing, request timeout, CORS, pagination and OpenAPI settings.
type APIConfig struct {
	BasePath       string                `toml:"base_path"`
	RequestTimeout string                `toml:"request_timeout"`
	CORS           middleware.CORSConfig `toml:"cors"`
	Pagination     pagination.Config     `toml:"pagination"`
	OpenAPI        openapi.Config        `toml:"openapi"`
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *APIConfig) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api/v1"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "30s"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("DOCPIPE_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("DOCPIPE_API_REQUEST_TIMEOUT"); v != "" {
		c.RequestTimeout = v
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.HasSuffix(c.BasePath, "/") {
		return fmt.Errorf("invalid base_path %q", c.BasePath)
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	return nil
}

package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Supported providers.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderMistral    = "mistral"
	ProviderGemini     = "gemini"
	ProviderVertex     = "vertex"
)

var defaultBaseURLs = map[string]string{
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderMistral:    "https://api.mistral.ai/v1",
}

var defaultModels = map[string]string{
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderMistral:    "pixtral-12b-2409",
	ProviderGemini:     "gemini-1.5-flash",
	ProviderVertex:     "gemini-1.5-flash",
}

// Config selects a provider and model. An empty Provider disables the client.
type Config struct {
	Provider        string `toml:"provider"`
	Model           string `toml:"model"`
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Project         string `toml:"project"`
	Region          string `toml:"region"`
	CredentialsFile string `toml:"credentials_file"`
	Timeout         string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider        string
	Model           string
	APIKey          string
	BaseURL         string
	Project         string
	Region          string
	CredentialsFile string
	Timeout         string
}

// Enabled reports whether a provider is configured.
func (c *Config) Enabled() bool {
	return c.Provider != ""
}

// OpenAICompatible reports whether the provider speaks the chat completions protocol.
func (c *Config) OpenAICompatible() bool {
	_, ok := defaultBaseURLs[c.Provider]
	return ok
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies environment overrides, provider defaults, and validation.
// Environment overrides run first so a provider chosen by env still gets its defaults.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Project != "" {
		c.Project = overlay.Project
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.CredentialsFile != "" {
		c.CredentialsFile = overlay.CredentialsFile
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if !c.Enabled() {
		return
	}
	if c.Model == "" {
		c.Model = defaultModels[c.Provider]
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURLs[c.Provider]
	}
	if c.Provider == ProviderVertex && c.Region == "" {
		c.Region = "us-central1"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(dst *string, name string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(&c.Provider, env.Provider)
	set(&c.Model, env.Model)
	set(&c.APIKey, env.APIKey)
	set(&c.BaseURL, env.BaseURL)
	set(&c.Project, env.Project)
	set(&c.Region, env.Region)
	set(&c.CredentialsFile, env.CredentialsFile)
	set(&c.Timeout, env.Timeout)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if !c.Enabled() {
		return nil
	}
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Provider == ProviderVertex && c.Project == "" {
		return fmt.Errorf("project required for vertex")
	}
	return nil
}

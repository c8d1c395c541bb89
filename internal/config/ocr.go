package config

import (
	"fmt"
	"os"

	"github.com/trackerzenith/docpipe/pkg/llm"
)

// OCRConfig selects the primary and fallback vision providers. The fallback
// is disabled unless a provider is set for it.
type OCRConfig struct {
	Primary  llm.Config `toml:"primary"`
	Fallback llm.Config `toml:"fallback"`
}

// Finalize applies defaults, environment variable overrides, and validation
// to both providers.
func (c *OCRConfig) Finalize() error {
	if c.Primary.Provider == "" && os.Getenv("DOCPIPE_OCR_PRIMARY_PROVIDER") == "" {
		c.Primary.Provider = llm.ProviderMistral
	}
	if err := c.Primary.Finalize(llmEnv("OCR_PRIMARY")); err != nil {
		return fmt.Errorf("primary: %w", err)
	}
	if err := c.Fallback.Finalize(llmEnv("OCR_FALLBACK")); err != nil {
		return fmt.Errorf("fallback: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *OCRConfig) Merge(overlay *OCRConfig) {
	c.Primary.Merge(&overlay.Primary)
	c.Fallback.Merge(&overlay.Fallback)
}

package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// PipelineConfig holds the thresholds and switches of the five processing stages.
type PipelineConfig struct {
	EnforceOwnerPrefix *bool `toml:"enforce_owner_prefix"`
	PDFTextThreshold   int   `toml:"pdf_text_threshold"`

	MinNativeChars int    `toml:"min_native_chars"`
	MinOCRChars    int    `toml:"min_ocr_chars"`
	OCRTimeout     string `toml:"ocr_timeout"`
	EnableFallback *bool  `toml:"enable_fallback"`
	RasterizePDFs  *bool  `toml:"rasterize_pdfs"`
	RasterDPI      int    `toml:"raster_dpi"`

	MinParseChars   int    `toml:"min_parse_chars"`
	ParseTimeout    string `toml:"parse_timeout"`
	DefaultCurrency string `toml:"default_currency"`

	Currencies         []string `toml:"currencies"`
	MaxTotal           float64  `toml:"max_total"`
	TotalsTolerance    float64  `toml:"totals_tolerance"`
	MaxAgeYears        int      `toml:"max_age_years"`
	StrictDuplicates   bool     `toml:"strict_duplicates"`
	ApprovalThreshold  float64  `toml:"approval_threshold"`
	EnableCoherence    bool     `toml:"enable_coherence"`
	CoherenceThreshold float64  `toml:"coherence_threshold"`
}

// OwnerPrefixEnforced reports whether storage keys must start with the owner's id.
func (c *PipelineConfig) OwnerPrefixEnforced() bool {
	return c.EnforceOwnerPrefix == nil || *c.EnforceOwnerPrefix
}

// FallbackEnabled reports whether a failed primary OCR attempt may use the fallback provider.
func (c *PipelineConfig) FallbackEnabled() bool {
	return c.EnableFallback == nil || *c.EnableFallback
}

// RasterizeEnabled reports whether scanned PDFs are rendered to images before OCR.
func (c *PipelineConfig) RasterizeEnabled() bool {
	return c.RasterizePDFs == nil || *c.RasterizePDFs
}

// OCRTimeoutDuration returns OCRTimeout as a time.Duration.
func (c *PipelineConfig) OCRTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.OCRTimeout)
	return d
}

// ParseTimeoutDuration returns ParseTimeout as a time.Duration.
func (c *PipelineConfig) ParseTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ParseTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.EnforceOwnerPrefix != nil {
		c.EnforceOwnerPrefix = overlay.EnforceOwnerPrefix
	}
	if overlay.PDFTextThreshold != 0 {
		c.PDFTextThreshold = overlay.PDFTextThreshold
	}
	if overlay.MinNativeChars != 0 {
		c.MinNativeChars = overlay.MinNativeChars
	}
	if overlay.MinOCRChars != 0 {
		c.MinOCRChars = overlay.MinOCRChars
	}
	if overlay.OCRTimeout != "" {
		c.OCRTimeout = overlay.OCRTimeout
	}
	if overlay.EnableFallback != nil {
		c.EnableFallback = overlay.EnableFallback
	}
	if overlay.RasterizePDFs != nil {
		c.RasterizePDFs = overlay.RasterizePDFs
	}
	if overlay.RasterDPI != 0 {
		c.RasterDPI = overlay.RasterDPI
	}
	if overlay.MinParseChars != 0 {
		c.MinParseChars = overlay.MinParseChars
	}
	if overlay.ParseTimeout != "" {
		c.ParseTimeout = overlay.ParseTimeout
	}
	if overlay.DefaultCurrency != "" {
		c.DefaultCurrency = overlay.DefaultCurrency
	}
	if overlay.Currencies != nil {
		c.Currencies = overlay.Currencies
	}
	if overlay.MaxTotal != 0 {
		c.MaxTotal = overlay.MaxTotal
	}
	if overlay.TotalsTolerance != 0 {
		c.TotalsTolerance = overlay.TotalsTolerance
	}
	if overlay.MaxAgeYears != 0 {
		c.MaxAgeYears = overlay.MaxAgeYears
	}
	if overlay.StrictDuplicates {
		c.StrictDuplicates = true
	}
	if overlay.ApprovalThreshold != 0 {
		c.ApprovalThreshold = overlay.ApprovalThreshold
	}
	if overlay.EnableCoherence {
		c.EnableCoherence = true
	}
	if overlay.CoherenceThreshold != 0 {
		c.CoherenceThreshold = overlay.CoherenceThreshold
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.PDFTextThreshold == 0 {
		c.PDFTextThreshold = 500
	}
	if c.MinNativeChars == 0 {
		c.MinNativeChars = 50
	}
	if c.MinOCRChars == 0 {
		c.MinOCRChars = 10
	}
	if c.OCRTimeout == "" {
		c.OCRTimeout = "8s"
	}
	if c.RasterDPI == 0 {
		c.RasterDPI = 200
	}
	if c.MinParseChars == 0 {
		c.MinParseChars = 20
	}
	if c.ParseTimeout == "" {
		c.ParseTimeout = "12s"
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "MYR"
	}
	if len(c.Currencies) == 0 {
		c.Currencies = []string{"MYR", "USD", "SGD", "EUR", "GBP", "JPY", "CNY"}
	}
	if c.MaxTotal == 0 {
		c.MaxTotal = 100000
	}
	if c.TotalsTolerance == 0 {
		c.TotalsTolerance = 0.01
	}
	if c.MaxAgeYears == 0 {
		c.MaxAgeYears = 5
	}
	if c.ApprovalThreshold == 0 {
		c.ApprovalThreshold = 0.7
	}
	if c.CoherenceThreshold == 0 {
		c.CoherenceThreshold = 0.85
	}
}

func (c *PipelineConfig) loadEnv() {
	envBoolPtr(&c.EnforceOwnerPrefix, "DOCPIPE_PIPELINE_ENFORCE_OWNER_PREFIX")
	envInt(&c.PDFTextThreshold, "DOCPIPE_PIPELINE_PDF_TEXT_THRESHOLD")
	envInt(&c.MinNativeChars, "DOCPIPE_PIPELINE_MIN_NATIVE_CHARS")
	envInt(&c.MinOCRChars, "DOCPIPE_PIPELINE_MIN_OCR_CHARS")
	if v := os.Getenv("DOCPIPE_PIPELINE_OCR_TIMEOUT"); v != "" {
		c.OCRTimeout = v
	}
	envBoolPtr(&c.EnableFallback, "DOCPIPE_PIPELINE_ENABLE_FALLBACK")
	envBoolPtr(&c.RasterizePDFs, "DOCPIPE_PIPELINE_RASTERIZE_PDFS")
	envInt(&c.RasterDPI, "DOCPIPE_PIPELINE_RASTER_DPI")
	envInt(&c.MinParseChars, "DOCPIPE_PIPELINE_MIN_PARSE_CHARS")
	if v := os.Getenv("DOCPIPE_PIPELINE_PARSE_TIMEOUT"); v != "" {
		c.ParseTimeout = v
	}
	if v := os.Getenv("DOCPIPE_PIPELINE_DEFAULT_CURRENCY"); v != "" {
		c.DefaultCurrency = v
	}
	if v := os.Getenv("DOCPIPE_PIPELINE_CURRENCIES"); v != "" {
		c.Currencies = strings.Split(v, ",")
	}
	envFloat(&c.MaxTotal, "DOCPIPE_PIPELINE_MAX_TOTAL")
	envFloat(&c.TotalsTolerance, "DOCPIPE_PIPELINE_TOTALS_TOLERANCE")
	envInt(&c.MaxAgeYears, "DOCPIPE_PIPELINE_MAX_AGE_YEARS")
	if v := os.Getenv("DOCPIPE_PIPELINE_STRICT_DUPLICATES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StrictDuplicates = b
		}
	}
	envFloat(&c.ApprovalThreshold, "DOCPIPE_PIPELINE_APPROVAL_THRESHOLD")
	if v := os.Getenv("DOCPIPE_PIPELINE_ENABLE_COHERENCE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.EnableCoherence = b
		}
	}
	envFloat(&c.CoherenceThreshold, "DOCPIPE_PIPELINE_COHERENCE_THRESHOLD")
}

func (c *PipelineConfig) validate() error {
	if _, err := time.ParseDuration(c.OCRTimeout); err != nil {
		return fmt.Errorf("invalid ocr_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.ParseTimeout); err != nil {
		return fmt.Errorf("invalid parse_timeout: %w", err)
	}

	for i, code := range c.Currencies {
		c.Currencies[i] = strings.ToUpper(strings.TrimSpace(code))
		if len(c.Currencies[i]) != 3 {
			return fmt.Errorf("invalid currency code %q", code)
		}
	}
	c.DefaultCurrency = strings.ToUpper(c.DefaultCurrency)
	if !slices.Contains(c.Currencies, c.DefaultCurrency) {
		return fmt.Errorf("default_currency %s not in currencies", c.DefaultCurrency)
	}

	for name, v := range map[string]float64{
		"approval_threshold":  c.ApprovalThreshold,
		"coherence_threshold": c.CoherenceThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}
	if c.EnableCoherence && c.CoherenceThreshold <= c.ApprovalThreshold {
		return fmt.Errorf("coherence_threshold %v must exceed approval_threshold %v when coherence is enabled",
			c.CoherenceThreshold, c.ApprovalThreshold)
	}
	if c.TotalsTolerance < 0 {
		return fmt.Errorf("totals_tolerance must be non-negative")
	}
	if c.PDFTextThreshold < 0 || c.MinNativeChars < 0 || c.MinOCRChars < 0 || c.MinParseChars < 0 {
		return fmt.Errorf("character thresholds must be non-negative")
	}
	return nil
}

func envInt(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, name string) {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBoolPtr(dst **bool, name string) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = &b
		}
	}
}

// Package llm defines a provider-neutral completion client used for OCR,
// structured parsing and coherence checks.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse indicates the provider returned no usable text.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrMissingAPIKey indicates a provider that needs a key was configured without one.
	ErrMissingAPIKey = errors.New("api key not configured")
)

// Image is an inline image attached to a request.
type Image struct {
	Data     []byte
	MimeType string
}

// DataURL encodes the image as a base64 data URL.
func (i Image) DataURL() string {
	return "data:" + i.MimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Images      []Image
	JSON        bool
	Temperature float32
	MaxTokens   int
}

// Response is the text produced by a completion.
type Response struct {
	Text         string
	Model        string
	FinishReason string
}

// Client performs completions against one configured model.
type Client interface {
	// Model returns the configured model identifier.
	Model() string
	// Complete runs a single completion. Implementations honor ctx cancellation.
	Complete(ctx context.Context, req Request) (*Response, error)
	// Close releases provider resources.
	Close() error
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, e.Body)
}

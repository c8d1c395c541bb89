// Package ocr defines the text-recognition provider contract and a vision-model
// implementation of it.
package ocr

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when a provider cannot accept the input type.
	// It is never worth retrying against another provider.
	ErrUnsupportedFormat = errors.New("unsupported input format")
	// ErrEmptyText is returned when recognition produced no usable text.
	ErrEmptyText = errors.New("no text recognized")
)

// Input is a single image handed to a provider.
type Input struct {
	Data     []byte
	MimeType string
}

// Result is the recognized text of one input.
type Result struct {
	Text       string
	Confidence float64
}

// Provider recognizes text in images.
type Provider interface {
	Name() string
	Recognize(ctx context.Context, in Input) (*Result, error)
}

// Retryable reports whether err may succeed against a different provider.
// Unsupported formats and caller cancellation are final; timeouts, transport
// failures, provider status errors and empty output are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// IsImage reports whether mimeType is an image type a provider can accept.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

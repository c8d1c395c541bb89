// Package pdftext reads the embedded text layer and structural details of PDF documents.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrUnreadable is returned when the bytes cannot be opened as a PDF at all.
var ErrUnreadable = errors.New("unreadable pdf")

// Info describes the structure of a PDF.
type Info struct {
	Pages int
	// Invalid holds the pdfcpu validation failure, if any. Invalid documents
	// may still carry an extractable text layer.
	Invalid error
}

// Inspect validates data and counts its pages. A document that fails
// validation is reported through Info.Invalid; an error is returned only
// when the page count cannot be read either.
func Inspect(data []byte) (*Info, error) {
	info := &Info{}

	if err := api.Validate(bytes.NewReader(data), nil); err != nil {
		info.Invalid = err
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		if info.Invalid != nil {
			return info, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		return info, fmt.Errorf("count pages: %w", err)
	}
	info.Pages = count

	return info, nil
}

// Extract returns the plain text layer of data with surrounding whitespace trimmed.
func Extract(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read text layer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read text layer: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// Chars returns the rune count of trimmed text.
func Chars(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// Layer exposes Inspect and Extract as methods so callers can depend on an interface.
type Layer struct{}

func (Layer) Inspect(data []byte) (*Info, error)  { return Inspect(data) }
func (Layer) Extract(data []byte) (string, error) { return Extract(data) }

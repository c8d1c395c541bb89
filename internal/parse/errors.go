package parse

import (
	"errors"
	"net/http"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/pkg/handlers"
)

var (
	ErrParse        = handlers.NewCodedError("parse_error", "parse failed")
	ErrTextTooShort = handlers.NewCodedError("text_too_short", "raw_text is too short to parse")
)

// MapHTTPStatus maps parser errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, handlers.ErrInvalidRequest), errors.Is(err, ErrTextTooShort):
		return http.StatusBadRequest
	case errors.Is(err, ErrParse):
		return http.StatusUnprocessableEntity
	default:
		return documents.MapHTTPStatus(err)
	}
}

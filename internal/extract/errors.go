package extract

import (
	"errors"
	"net/http"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/ocr"
	"github.com/trackerzenith/docpipe/pkg/storage"
)

var (
	ErrExtraction = handlers.NewCodedError("extraction_error", "extraction failed")
	ErrNoProvider = errors.New("no ocr provider configured")
)

// MapHTTPStatus maps extraction errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, handlers.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrExtraction):
		return http.StatusBadGateway
	default:
		return documents.MapHTTPStatus(err)
	}
}

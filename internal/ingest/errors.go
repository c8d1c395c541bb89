package ingest

import (
	"errors"
	"net/http"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/storage"
)

var (
	ErrIngest          = handlers.NewCodedError("ingest_error", "ingest failed")
	ErrUnsupportedType = handlers.NewCodedError("unsupported_media_type", "unsupported media type")
	ErrInvalidKey      = handlers.NewCodedError("invalid_file_url", "file_url is not a private storage key")
	ErrEmptyFile       = errors.New("file is empty")
)

// MapHTTPStatus maps classifier errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, handlers.ErrInvalidRequest), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrIngest):
		return http.StatusUnprocessableEntity
	default:
		return documents.MapHTTPStatus(err)
	}
}

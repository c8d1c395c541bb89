package validate

import (
	"errors"
	"net/http"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/pkg/handlers"
)

// MapHTTPStatus maps validator errors to HTTP status codes. Rule failures
// are verdicts, not errors.
func MapHTTPStatus(err error) int {
	if errors.Is(err, handlers.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return documents.MapHTTPStatus(err)
}

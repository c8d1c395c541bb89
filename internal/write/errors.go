package write

import (
	"errors"
	"net/http"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/pkg/handlers"
)

var (
	ErrNotApproved = handlers.NewCodedError("not_approved", "draft is not approved")
	ErrWrite       = handlers.NewCodedError("write_error", "failed to write document")
)

// MapHTTPStatus maps writer errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, handlers.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotApproved):
		return http.StatusConflict
	case errors.Is(err, ErrWrite):
		return http.StatusBadGateway
	}
	return documents.MapHTTPStatus(err)
}

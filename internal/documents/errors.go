package documents

import (
	"errors"
	"net/http"

	"github.com/trackerzenith/docpipe/pkg/handlers"
)

// Domain errors for document operations.
var (
	ErrNotFound       = handlers.NewCodedError("not_found", "document not found")
	ErrForbidden      = handlers.NewCodedError("forbidden", "document belongs to another user")
	ErrFinalized      = handlers.NewCodedError("document_finalized", "document already has a transaction")
	ErrTerminalStatus = handlers.NewCodedError("document_failed", "document is in a terminal failed state")
	ErrInvalidStatus  = handlers.NewCodedError("invalid_status", "invalid document status")
	ErrInvalidFilter  = handlers.NewCodedError("invalid_filter", "invalid document filter")
)

// MapHTTPStatus maps document domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrFinalized) || errors.Is(err, ErrTerminalStatus) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrInvalidFilter) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

package prompts

import (
	"errors"
	"net/http"

	"github.com/trackerzenith/docpipe/pkg/handlers"
)

var (
	ErrNotFound      = handlers.NewCodedError("not_found", "prompt not found")
	ErrDuplicate     = handlers.NewCodedError("duplicate_prompt", "prompt name already exists")
	ErrInvalidStage  = handlers.NewCodedError("invalid_stage", "stage must be ocr, parse, or coherence")
	ErrInvalidPrompt = handlers.NewCodedError("invalid_prompt", "name and instructions are required")
)

var statuses = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrDuplicate, http.StatusConflict},
	{ErrInvalidStage, http.StatusBadRequest},
	{ErrInvalidPrompt, http.StatusBadRequest},
}

// MapHTTPStatus returns the status for the first prompt error in err's
// chain, or 500.
func MapHTTPStatus(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

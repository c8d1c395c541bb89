package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ErrInvalidRequest marks malformed request bodies and path parameters.
var ErrInvalidRequest = NewCodedError("invalid_request", "invalid request")

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// PathID parses the named path value as a positive int64 identifier.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidRequest, name, raw)
	}
	return id, nil
}

// Package handlers provides JSON response helpers shared by HTTP handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes it as an ErrorResponse.
// The code is taken from the first Coder in the error chain, falling back
// to a code derived from the HTTP status.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	code := ErrorCode(err, status)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "code", code, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "code", code, "error", err)
	}

	RespondJSON(w, status, ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

// ErrorCode resolves the machine-readable code for err.
func ErrorCode(err error, status int) string {
	var coder Coder
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return StatusCode(status)
}

// StatusCode converts an HTTP status into a snake_case code ("Not Found" -> "not_found").
func StatusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	if status == http.StatusInternalServerError {
		return "internal_error"
	}
	text = strings.ToLower(text)
	text = strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text)
	return text
}

package auth

import "errors"

var (
	// ErrInvalidToken indicates a token failed signature, expiry, issuer, or audience checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownMode indicates an unsupported auth mode in configuration.
	ErrUnknownMode = errors.New("unknown auth mode")
)

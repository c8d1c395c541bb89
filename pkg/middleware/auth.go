package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trackerzenith/docpipe/pkg/auth"
	"github.com/trackerzenith/docpipe/pkg/handlers"
)

var (
	errMissingToken = handlers.NewCodedError("unauthorized", "missing bearer token")
	errInvalidToken = handlers.NewCodedError("unauthorized", "invalid bearer token")
)

// Auth returns middleware that requires a valid bearer token on every request
// except CORS preflights. Verified claims are stored on the request context.
// A nil verifier disables the check.
func Auth(verifier auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearerToken(r)
			if !ok {
				handlers.RespondError(w, logger, http.StatusUnauthorized, errMissingToken)
				return
			}

			claims, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.Debug("token verification failed", "error", err)
				handlers.RespondError(w, logger, http.StatusUnauthorized, errInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

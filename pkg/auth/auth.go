// Package auth verifies bearer tokens issued by the external identity provider.
// Shared-secret (HS256) tokens are verified locally; asymmetric tokens are
// verified against a remote JSON Web Key Set or an OIDC issuer.
package auth

import (
	"context"
	"fmt"
	"time"
)

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	Subject string
	Email   string
	Role    string
	Expiry  time.Time
}

// Verifier validates a raw bearer token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

type claimsKey struct{}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// FromContext returns the claims stored by WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// New builds the Verifier for cfg.Mode. ModeNone returns a nil Verifier.
// For ModeOIDC the issuer discovery document is fetched using ctx; for ModeJWKS
// ctx bounds the lifetime of the background key refresher.
func New(ctx context.Context, cfg *Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeNone:
		return nil, nil
	case ModeHS256:
		return newHMAC(cfg), nil
	case ModeJWKS, ModeOIDC:
		return newOIDC(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, cfg.Mode)
	}
}

package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func newOIDC(ctx context.Context, cfg *Config) (*oidcVerifier, error) {
	oc := &oidc.Config{
		ClientID:             cfg.Audience,
		SkipClientIDCheck:    cfg.Audience == "",
		SkipIssuerCheck:      cfg.Issuer == "",
		SupportedSigningAlgs: cfg.Algorithms,
	}

	if cfg.Mode == ModeJWKS {
		keySet := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
		return &oidcVerifier{verifier: oidc.NewVerifier(cfg.Issuer, keySet, oc)}, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover issuer %s: %w", cfg.Issuer, err)
	}
	return &oidcVerifier{verifier: provider.Verifier(oc)}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var extra struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := token.Claims(&extra); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %w", ErrInvalidToken, err)
	}

	return &Claims{
		Subject: token.Subject,
		Email:   extra.Email,
		Role:    extra.Role,
		Expiry:  token.Expiry,
	}, nil
}

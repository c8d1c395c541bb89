package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type hmacVerifier struct {
	secret  []byte
	options []jwt.ParserOption
}

func newHMAC(cfg *Config) *hmacVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.LeewayDuration()),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &hmacVerifier{
		secret:  []byte(cfg.Secret),
		options: opts,
	}
}

func (v *hmacVerifier) Verify(_ context.Context, raw string) (*Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	out := &Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}
	if claims.ExpiresAt != nil {
		out.Expiry = claims.ExpiresAt.Time
	}
	return out, nil
}

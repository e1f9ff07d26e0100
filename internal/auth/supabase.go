package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// SupabaseClaims is the subset of a Supabase access token we read.
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Role        string `json:"role"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// SupabaseVerifier validates Supabase access tokens against the project JWKS.
type SupabaseVerifier struct {
	keyfunc jwt.Keyfunc
	logger  *slog.Logger
}

// NewSupabaseVerifier fetches and caches the JWKS at jwksURL. The key set
// refreshes itself in the background until ctx ends.
func NewSupabaseVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (*SupabaseVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}
	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)
	return &SupabaseVerifier{keyfunc: jwks.Keyfunc, logger: logger}, nil
}

func (v *SupabaseVerifier) Verify(ctx context.Context, tokenStr string) (string, error) {
	claims := &SupabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, v.keyfunc, jwt.WithValidMethods([]string{"RS256", "ES256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		v.logger.Debug("token parse failed", "error", err)
		return "", ErrInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalid
	}
	// anon keys are signed by the same project but carry no user
	if claims.Role != "authenticated" || claims.IsAnonymous {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}

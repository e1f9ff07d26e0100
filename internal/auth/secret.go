package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SecretVerifier checks HS256 tokens signed with a shared secret. It backs
// local development and the admin CLI when no Supabase project is configured.
type SecretVerifier struct {
	secret []byte
}

func NewSecretVerifier(secret string) *SecretVerifier {
	return &SecretVerifier{secret: []byte(secret)}
}

// IssueToken signs a token for userID that expires after ttl.
func (s *SecretVerifier) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SecretVerifier) Verify(ctx context.Context, tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}

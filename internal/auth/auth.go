// Package auth resolves the optional caller identity from a bearer token.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrNoToken means the request carried no bearer token.
	ErrNoToken = errors.New("missing bearer token")
	// ErrExpired means the session existed but can no longer be refreshed.
	ErrExpired = errors.New("session expired")
	// ErrInvalid covers every other verification failure.
	ErrInvalid = errors.New("invalid token")
)

// Verifier maps a bearer token to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Chain tries each verifier in order and returns the first success. When all
// fail, ErrExpired wins over ErrInvalid so callers can tell a stale session
// from a bad one.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}
	if len(c) == 0 {
		return "", ErrInvalid
	}

	err := ErrInvalid
	for _, v := range c {
		userID, verr := v.Verify(ctx, token)
		if verr == nil {
			return userID, nil
		}
		if errors.Is(verr, ErrExpired) {
			err = ErrExpired
		}
	}
	return "", err
}

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID stores the resolved user on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the user stored by WithUserID, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"portfolio-backend/internal/auth"
)

// RequireUser rejects requests without a verified bearer token and stores
// the user id on the request context.
func RequireUser(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			userID, err := v.Verify(r.Context(), auth.BearerToken(r))
			if err != nil {
				msg := "Unauthorized"
				if errors.Is(err, auth.ErrExpired) {
					msg = "Session expired"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalUser stores the user id when the token verifies and otherwise
// lets the request through anonymously.
func OptionalUser(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v != nil {
				if token := auth.BearerToken(r); token != "" {
					if userID, err := v.Verify(r.Context(), token); err == nil {
						r = r.WithContext(auth.WithUserID(r.Context(), userID))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

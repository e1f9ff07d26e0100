package middleware

import (
	"net/http"
	"strconv"

	"portfolio-backend/internal/ratelimit"
)

// SetRateLimitHeaders reports the limiter verdict to the client.
func SetRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

// RateLimit admits requests through l keyed by forwarded client address.
// The chat endpoint checks its own limit inside the pipeline; this guards
// the completion and speech proxies.
func RateLimit(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := l.Check(r.Context(), ratelimit.ClientKey(r))
			SetRateLimitHeaders(w, res)
			if !res.Success {
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

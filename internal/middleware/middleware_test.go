package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/ratelimit"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func okHandler(t *testing.T, wantUser string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := auth.UserID(r.Context()); got != wantUser {
			t.Errorf("user in context = %q, want %q", got, wantUser)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireUser(t *testing.T) {
	v := auth.NewSecretVerifier("s")
	valid, _ := v.IssueToken("admin", time.Minute)
	expired, _ := v.IssueToken("admin", -time.Minute)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/llm-logs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			RequireUser(v)(okHandler(t, "admin")).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestOptionalUser(t *testing.T) {
	v := auth.NewSecretVerifier("s")
	valid, _ := v.IssueToken("visitor", time.Minute)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	OptionalUser(v)(okHandler(t, "")).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("anonymous status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	OptionalUser(v)(okHandler(t, "visitor")).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("signed-in status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	l := ratelimit.New(ratelimit.NewMemoryStore(), 1, time.Minute, ratelimit.FailOpen, discard)
	h := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest("POST", "/api/tts", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.4")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d status = %d, want %d", i, rec.Code, want)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "1" {
			t.Fatalf("limit header = %q", rec.Header().Get("X-RateLimit-Limit"))
		}
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLoggingCapturesStatus(t *testing.T) {
	h := Logging(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}

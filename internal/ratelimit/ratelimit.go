// Package ratelimit implements per-client sliding-window admission control.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// UnknownClient is the shared bucket for requests without a forwarded-for
// header. All unattributable clients compete for the same quota.
const UnknownClient = "unknown"

type Result struct {
	Success   bool      `json:"success"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset"`
}

// Store records admissions and answers whether one more fits in the window.
// Implementations must make the check-and-record step atomic.
type Store interface {
	Admit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

// Policy decides what happens when the Store cannot be reached.
type Policy int

const (
	FailOpen Policy = iota
	FailClosed
)

func (p Policy) String() string {
	if p == FailClosed {
		return "fail-closed"
	}
	return "fail-open"
}

type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	policy Policy
	now    func() time.Time
	logger *slog.Logger

	// OnStoreFailure is invoked each time the store errors.
	OnStoreFailure func(err error)
}

func New(store Store, limit int, window time.Duration, policy Policy, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		policy: policy,
		now:    time.Now,
		logger: logger,
	}
}

// Check admits or denies one request for key.
func (l *Limiter) Check(ctx context.Context, key string) Result {
	if key == "" {
		key = UnknownClient
	}
	now := l.now()

	res, err := l.store.Admit(ctx, key, l.limit, l.window, now)
	if err != nil {
		return l.onStoreError(key, now, err)
	}
	return res
}

func (l *Limiter) onStoreError(key string, now time.Time, err error) Result {
	l.logger.Error("rate limit store unavailable", "key", key, "policy", l.policy.String(), "error", err)
	if l.OnStoreFailure != nil {
		l.OnStoreFailure(err)
	}
	return decideOnFailure(l.policy, l.limit, l.window, now)
}

// decideOnFailure is the whole degraded-mode decision: fail-open admits with
// a synthetic remaining count, fail-closed denies.
func decideOnFailure(policy Policy, limit int, window time.Duration, now time.Time) Result {
	res := Result{Limit: limit, ResetAt: now.Add(window)}
	if policy == FailClosed {
		return res
	}
	res.Success = true
	if limit > 0 {
		res.Remaining = limit - 1
	}
	return res
}

// ClientKey derives the limiter key from X-Forwarded-For, taking the first
// hop. Requests without the header share UnknownClient.
func ClientKey(r *http.Request) string {
	fwd := r.Header.Get("X-Forwarded-For")
	if fwd == "" {
		return UnknownClient
	}
	first, _, _ := strings.Cut(fwd, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return UnknownClient
	}
	return first
}

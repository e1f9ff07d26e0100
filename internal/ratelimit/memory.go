package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps a sliding log of admission times per key in process.
// It is used when no Redis is configured and in tests.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hits: make(map[string][]time.Time)}
}

func (s *MemoryStore) Admit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	kept := s.hits[key][:0]
	for _, t := range s.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	res := Result{Limit: limit}
	if len(kept) < limit {
		kept = append(kept, now)
		res.Success = true
		res.Remaining = limit - len(kept)
	}
	res.ResetAt = now.Add(window)
	if len(kept) > 0 {
		res.ResetAt = kept[0].Add(window)
	}
	s.hits[key] = kept
	return res, nil
}

// Sweep drops keys whose admissions have all aged out of window.
func (s *MemoryStore) Sweep(window time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-window)
	for key, hits := range s.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(s.hits, key)
		}
	}
}

// StartSweeper runs Sweep every window until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, window time.Duration) {
	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Sweep(window, now)
			}
		}
	}()
}

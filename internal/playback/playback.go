// Package playback plays synthesized audio and reports when it starts and
// ends. Players may never report an end, so Play arms a fallback timer that
// delivers the same ended signal.
package playback

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultDuration is assumed when a player cannot report clip length.
	DefaultDuration = 30 * time.Second
	// FallbackBuffer is added to the clip length before the fallback fires.
	FallbackBuffer = 2 * time.Second
)

// Callbacks are invoked from the player's goroutine. OnEnded runs at most
// once per Play call, whichever of natural end, Stop or the fallback timer
// comes first.
type Callbacks struct {
	OnPlayStart func()
	OnEnded     func()
}

// Handle controls one playback.
type Handle interface {
	// Stop halts playback and forces the ended signal. Safe to call twice.
	Stop()
	// Duration is the clip length, or zero when unknown.
	Duration() time.Duration
}

// Player starts playback of an audio URL. Implementations call
// cb.OnPlayStart when audio is actually audible and cb.OnEnded on
// natural completion.
type Player interface {
	Start(ctx context.Context, url string, cb Callbacks) (Handle, error)
}

// supervised guards a player's Handle with the fallback timer.
type supervised struct {
	inner Handle
	timer *time.Timer
	end   func()
}

func (s *supervised) Stop() {
	s.timer.Stop()
	s.inner.Stop()
	s.end()
}

func (s *supervised) Duration() time.Duration { return s.inner.Duration() }

// expire is the fallback path. It halts the player too, so a clip that
// outruns its reported length cannot keep playing after ended is signalled.
func (s *supervised) expire() {
	s.inner.Stop()
	s.end()
}

// Play starts url on p. The returned Handle's Stop and the fallback timer
// both stop the player and resolve to the same single OnEnded call.
func Play(ctx context.Context, p Player, url string, cb Callbacks) (Handle, error) {
	var once sync.Once
	end := func() {
		once.Do(func() {
			if cb.OnEnded != nil {
				cb.OnEnded()
			}
		})
	}

	h, err := p.Start(ctx, url, Callbacks{OnPlayStart: cb.OnPlayStart, OnEnded: end})
	if err != nil {
		return nil, err
	}

	s := &supervised{inner: h, end: end}
	s.timer = time.AfterFunc(FallbackAfter(h.Duration()), s.expire)
	return s, nil
}

// FallbackAfter is how long to wait for a natural end before forcing one.
func FallbackAfter(d time.Duration) time.Duration {
	if d <= 0 {
		d = DefaultDuration
	}
	return d + FallbackBuffer
}

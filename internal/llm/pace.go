package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Pacer spaces provider calls to stay under the upstream request quota.
// Callers block until a slot is free or ctx ends.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows perMinute calls per minute with a burst of the same size.
// A non-positive perMinute disables pacing.
func NewPacer(perMinute int) *Pacer {
	if perMinute <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("timeout waiting for provider slot: %w", err)
	}
	return nil
}

type pacedCompleter struct {
	next  Completer
	pacer *Pacer
}

// PaceCompleter waits on p before each completion.
func PaceCompleter(next Completer, p *Pacer) Completer {
	return &pacedCompleter{next: next, pacer: p}
}

func (c *pacedCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, req)
}

type pacedSynthesizer struct {
	next  Synthesizer
	pacer *Pacer
}

// PaceSynthesizer waits on p before each synthesis.
func PaceSynthesizer(next Synthesizer, p *Pacer) Synthesizer {
	return &pacedSynthesizer{next: next, pacer: p}
}

func (s *pacedSynthesizer) Synthesize(ctx context.Context, text, instructions string) (string, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return "", err
	}
	return s.next.Synthesize(ctx, text, instructions)
}

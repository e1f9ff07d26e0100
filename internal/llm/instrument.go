package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/telemetry"
)

type instrumentedCompleter struct {
	next     Completer
	provider string
}

// InstrumentCompleter records latency and a span per completion.
func InstrumentCompleter(next Completer, provider string) Completer {
	return &instrumentedCompleter{next: next, provider: provider}
}

func (c *instrumentedCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.provider),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	text, err := c.next.Complete(ctx, req)
	metrics.ObserveProvider(c.provider, "complete", start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return text, err
}

type instrumentedSynthesizer struct {
	next     Synthesizer
	provider string
}

// InstrumentSynthesizer records latency and a span per synthesis.
func InstrumentSynthesizer(next Synthesizer, provider string) Synthesizer {
	return &instrumentedSynthesizer{next: next, provider: provider}
}

func (s *instrumentedSynthesizer) Synthesize(ctx context.Context, text, instructions string) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "llm.synthesize")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", s.provider),
		attribute.Int("llm.input_chars", len(text)),
	)

	start := time.Now()
	uri, err := s.next.Synthesize(ctx, text, instructions)
	metrics.ObserveProvider(s.provider, "synthesize", start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return uri, err
}

// Package llm adapts completion and speech providers behind two small
// interfaces used by the chat pipeline.
package llm

import "context"

// CompletionRequest is one grounded completion: system instructions, an
// optional grounding context sent as its own user turn, and the question.
type CompletionRequest struct {
	System      string
	Context     string
	User        string
	MaxTokens   int
	Temperature float32
}

// Completer returns the provider's text. An empty string with a nil error
// means the provider answered without content.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Synthesizer renders text as audio and returns it as a data URI.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, instructions string) (string, error)
}

type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

type SynthesizerFunc func(ctx context.Context, text, instructions string) (string, error)

func (f SynthesizerFunc) Synthesize(ctx context.Context, text, instructions string) (string, error) {
	return f(ctx, text, instructions)
}

package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tiktoken-go/tokenizer"
)

// ContextBudget caps the grounding context at a token count so a growing
// about.md cannot push the request past the model window.
type ContextBudget struct {
	codec     tokenizer.Codec
	maxTokens int
	logger    *slog.Logger
}

func NewContextBudget(maxTokens int, logger *slog.Logger) (*ContextBudget, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4o)
	if err != nil {
		codec, err = tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextBudget{codec: codec, maxTokens: maxTokens, logger: logger}, nil
}

// Count returns the token length of s.
func (b *ContextBudget) Count(s string) int {
	ids, _, _ := b.codec.Encode(s)
	return len(ids)
}

// Trim returns s cut to the first maxTokens tokens.
func (b *ContextBudget) Trim(s string) string {
	if b.maxTokens <= 0 {
		return s
	}
	ids, _, err := b.codec.Encode(s)
	if err != nil || len(ids) <= b.maxTokens {
		return s
	}
	out, err := b.codec.Decode(ids[:b.maxTokens])
	if err != nil {
		return s
	}
	b.logger.Warn("grounding context trimmed", "tokens", len(ids), "max", b.maxTokens)
	return out
}

type budgetedCompleter struct {
	next   Completer
	budget *ContextBudget
}

// LimitContext trims CompletionRequest.Context to the budget before calling next.
func LimitContext(next Completer, b *ContextBudget) Completer {
	return &budgetedCompleter{next: next, budget: b}
}

func (c *budgetedCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	req.Context = c.budget.Trim(req.Context)
	return c.next.Complete(ctx, req)
}

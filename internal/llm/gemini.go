package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiCompleter answers completions with a Gemini model. Speech still goes
// through OpenAI.
type GeminiCompleter struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

func NewGeminiCompleter(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiCompleter{client: client, modelName: modelName, logger: logger}, nil
}

func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

func (g *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	model.SetTemperature(req.Temperature)

	resp, err := model.GenerateContent(ctx, promptParts(req)...)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonMaxTokens {
			g.logger.Warn("gemini candidate stopped early", "candidate", i, "reason", cand.FinishReason.String())
		}
	}
	return extractText(resp), nil
}

// promptParts puts the grounding context ahead of the user message.
func promptParts(req CompletionRequest) []genai.Part {
	parts := make([]genai.Part, 0, 2)
	if req.Context != "" {
		parts = append(parts, genai.Text(req.Context))
	}
	return append(parts, genai.Text(req.User))
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

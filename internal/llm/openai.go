package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultChatModel     = "gpt-4o"
	defaultSpeechModel   = "tts-1"
	defaultVoice         = "alloy"
	defaultHTTPTimeout   = 60 * time.Second
)

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithBaseURL sets the API root, without the /v1 suffix.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAIClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
		}
	}
}

func WithHTTPClient(httpClient *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		c.httpClient = httpClient
	}
}

func WithChatModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		if model != "" {
			c.chatModel = model
		}
	}
}

func WithSpeechModel(model, voice string) OpenAIOption {
	return func(c *OpenAIClient) {
		if model != "" {
			c.speechModel = model
		}
		if voice != "" {
			c.voice = voice
		}
	}
}

// OpenAIClient talks to the chat completions and audio speech endpoints.
// It satisfies both Completer and Synthesizer.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	chatModel   string
	speechModel string
	voice       string
	httpClient  *http.Client
}

func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:      apiKey,
		baseURL:     defaultOpenAIBaseURL,
		chatModel:   defaultChatModel,
		speechModel: defaultSpeechModel,
		voice:       defaultVoice,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
}

type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type SpeechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Instructions   string `json:"instructions,omitempty"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// APIError is a non-2xx reply from the provider.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("openai API error (status %d, %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("openai API error (status %d): %s", e.StatusCode, e.Message)
}

func parseAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &APIError{StatusCode: status, Type: envelope.Error.Type, Message: envelope.Error.Message}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

// CreateChatCompletion posts to /v1/chat/completions.
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	respBody, err := c.post(ctx, "/v1/chat/completions", req)
	if err != nil {
		return nil, err
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// CreateSpeech posts to /v1/audio/speech and returns the raw audio bytes.
func (c *OpenAIClient) CreateSpeech(ctx context.Context, req *SpeechRequest) ([]byte, error) {
	return c.post(ctx, "/v1/audio/speech", req)
}

// Complete sends system, context and user as separate turns.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := []ChatMessage{{Role: "system", Content: req.System}}
	if req.Context != "" {
		messages = append(messages, ChatMessage{Role: "user", Content: req.Context})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.User})

	resp, err := c.CreateChatCompletion(ctx, &ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", nil
	}
	return *resp.Choices[0].Message.Content, nil
}

// Synthesize renders text as mp3 and wraps it in a data URI.
func (c *OpenAIClient) Synthesize(ctx context.Context, text, instructions string) (string, error) {
	audio, err := c.CreateSpeech(ctx, &SpeechRequest{
		Model:          c.speechModel,
		Input:          text,
		Instructions:   instructions,
		Voice:          c.voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("speech provider returned no audio")
	}
	return AudioDataURI(audio), nil
}

// AudioDataURI encodes mp3 bytes as data:audio/mp3;base64,...
func AudioDataURI(audio []byte) string {
	return "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(audio)
}

func (c *OpenAIClient) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

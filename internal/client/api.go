package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"portfolio-backend/internal/models"
)

// API is the server surface a Session talks to.
type API interface {
	Chat(ctx context.Context, message, tts string) (models.Reply, error)
	About(ctx context.Context) (*models.AboutResponse, error)
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Speak(ctx context.Context, text string) (string, error)
}

// StatusError is a non-2xx response from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type HTTPOption func(*HTTPAPI)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(a *HTTPAPI) { a.httpClient = c }
}

// WithToken sends a bearer token with every request.
func WithToken(token string) HTTPOption {
	return func(a *HTTPAPI) { a.token = token }
}

// HTTPAPI calls the portfolio backend over HTTP.
type HTTPAPI struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPAPI(baseURL string, opts ...HTTPOption) *HTTPAPI {
	a := &HTTPAPI{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat returns the decoded reply for any status the server answers with,
// so rate limits and validation failures arrive as *models.ErrorReply.
func (a *HTTPAPI) Chat(ctx context.Context, message, tts string) (models.Reply, error) {
	payload := map[string]string{"message": message}
	if tts != "" {
		payload["tts"] = tts
	}
	status, body, err := a.do(ctx, http.MethodPost, "/api/chat", payload)
	if err != nil {
		return nil, err
	}
	reply, err := models.DecodeReply(body)
	if err != nil {
		if status < 200 || status > 299 {
			return nil, &StatusError{StatusCode: status}
		}
		return nil, err
	}
	return reply, nil
}

func (a *HTTPAPI) About(ctx context.Context) (*models.AboutResponse, error) {
	var out models.AboutResponse
	if err := a.call(ctx, http.MethodGet, "/api/knowledge/about", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var out models.CompletionResponse
	req := models.CompletionRequest{SystemPrompt: systemPrompt, UserPrompt: userPrompt}
	if err := a.call(ctx, http.MethodPost, "/api/openai", req, &out); err != nil {
		return "", err
	}
	return out.AIMessage, nil
}

func (a *HTTPAPI) Speak(ctx context.Context, text string) (string, error) {
	var out models.SpeechResponse
	if err := a.call(ctx, http.MethodPost, "/api/tts", models.SpeechRequest{Text: text}, &out); err != nil {
		return "", err
	}
	return out.AudioURL, nil
}

func (a *HTTPAPI) call(ctx context.Context, method, path string, payload, out interface{}) error {
	status, body, err := a.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		var e models.ErrorReply
		json.Unmarshal(body, &e)
		return &StatusError{StatusCode: status, Message: e.Error}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

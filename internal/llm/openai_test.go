package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-backend/internal/testutil"
)

func newReplayClient(t *testing.T, cassette string) *OpenAIClient {
	t.Helper()
	r := testutil.NewVCRRecorder(t, cassette)
	return NewOpenAIClient(testutil.APIKey("OPENAI_API_KEY_PRIVATE"), WithHTTPClient(testutil.VCRHTTPClient(r)))
}

func TestOpenAIClient_Complete(t *testing.T) {
	c := newReplayClient(t, "openai_chat_completion")

	text, err := c.Complete(context.Background(), CompletionRequest{
		System:      "Answer only from the knowledge files.",
		Context:     "Kristopher is a software engineer.",
		User:        "What does Kristopher do?",
		MaxTokens:   ChatMaxTokens,
		Temperature: Temperature,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(text, "software engineer") {
		t.Fatalf("text = %q", text)
	}
}

func TestOpenAIClient_CompleteNullContent(t *testing.T) {
	c := newReplayClient(t, "openai_chat_empty")

	text, err := c.Complete(context.Background(), CompletionRequest{System: "s", User: "u"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
}

func TestOpenAIClient_CompleteAPIError(t *testing.T) {
	c := newReplayClient(t, "openai_chat_unauthorized")

	_, err := c.Complete(context.Background(), CompletionRequest{System: "s", User: "u"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Type != "invalid_request_error" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestOpenAIClient_Synthesize(t *testing.T) {
	c := newReplayClient(t, "openai_speech")

	uri, err := c.Synthesize(context.Background(), "Hello there.", "Speak calmly.")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	const prefix = "data:audio/mp3;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("uri = %q", uri)
	}
	audio, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(audio) != "ID3fake-mp3-frames" {
		t.Fatalf("audio = %q", audio)
	}
}

func TestOpenAIClient_WireFormat(t *testing.T) {
	var gotChat ChatCompletionRequest
	var gotSpeech SpeechRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/v1/chat/completions":
			json.Unmarshal(body, &gotChat)
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
		case "/v1/audio/speech":
			json.Unmarshal(body, &gotSpeech)
			w.Write([]byte("mp3"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL+"/v1/"), WithSpeechModel("", "nova"))

	if _, err := c.Complete(context.Background(), CompletionRequest{
		System: "sys", Context: "ctx", User: "hi", MaxTokens: 256, Temperature: 0.7,
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotChat.Model != "gpt-4o" || gotChat.MaxTokens != 256 || gotChat.Temperature != 0.7 {
		t.Fatalf("chat request = %+v", gotChat)
	}
	wantRoles := []string{"system", "user", "user"}
	if len(gotChat.Messages) != 3 {
		t.Fatalf("messages = %+v", gotChat.Messages)
	}
	for i, m := range gotChat.Messages {
		if m.Role != wantRoles[i] {
			t.Errorf("message %d role = %q, want %q", i, m.Role, wantRoles[i])
		}
	}
	if gotChat.Messages[1].Content != "ctx" || gotChat.Messages[2].Content != "hi" {
		t.Fatalf("messages = %+v", gotChat.Messages)
	}

	if _, err := c.Synthesize(context.Background(), "read me", VoiceInstructions); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if gotSpeech.Model != "tts-1" || gotSpeech.Voice != "nova" || gotSpeech.ResponseFormat != "mp3" {
		t.Fatalf("speech request = %+v", gotSpeech)
	}
	if gotSpeech.Input != "read me" || gotSpeech.Instructions != VoiceInstructions {
		t.Fatalf("speech request = %+v", gotSpeech)
	}
}

func TestOpenAIClient_SynthesizeEmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewOpenAIClient("k", WithBaseURL(srv.URL))
	if _, err := c.Synthesize(context.Background(), "x", ""); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestParseAPIError_PlainBody(t *testing.T) {
	err := parseAPIError(502, []byte("bad gateway\n"))
	if err.Message != "bad gateway" || err.StatusCode != 502 {
		t.Fatalf("err = %+v", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("Error() = %q", err.Error())
	}
}

package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestPromptParts(t *testing.T) {
	tests := []struct {
		name string
		req  CompletionRequest
		want []genai.Part
	}{
		{"user only", CompletionRequest{User: "hi"}, []genai.Part{genai.Text("hi")}},
		{"with context", CompletionRequest{Context: "bio", User: "hi"}, []genai.Part{genai.Text("bio"), genai.Text("hi")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := promptParts(tc.req)
			if len(got) != len(tc.want) {
				t.Fatalf("parts = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("part %d = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Hello, "),
				genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text("world"),
			}}},
			{Content: nil},
		},
	}
	if got := extractText(resp); got != "Hello, world" {
		t.Errorf("extractText = %q", got)
	}
	if got := extractText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

package models

import (
	"encoding/json"
	"fmt"
)

// TTSWelcome is the tts mode that skips completion and narrates the greeting.
const TTSWelcome = "welcome"

// ChatRequest is the validated payload of POST /api/chat.
type ChatRequest struct {
	Message *string `json:"message,omitempty"`
	TTS     *string `json:"tts,omitempty"`
}

// MessageText returns the message or "" when absent.
func (r *ChatRequest) MessageText() string {
	if r == nil || r.Message == nil {
		return ""
	}
	return *r.Message
}

// TTSMode returns the tts mode or "" when absent.
func (r *ChatRequest) TTSMode() string {
	if r == nil || r.TTS == nil {
		return ""
	}
	return *r.TTS
}

// WantsAudio reports whether any tts mode was requested.
func (r *ChatRequest) WantsAudio() bool {
	return r.TTSMode() != ""
}

// IsWelcome reports whether the canned greeting flow was requested.
func (r *ChatRequest) IsWelcome() bool {
	return r.TTSMode() == TTSWelcome
}

// Reply type discriminators used on the wire.
const (
	ReplyTypeContactInfo = "contact-info"
	ReplyTypeProjectList = "project-list"
)

// Reply is the sum of every body the chat endpoint can produce:
// *TextReply, *ContactInfoReply, *ProjectListReply or *ErrorReply.
type Reply interface {
	isReply()
}

type TextReply struct {
	AIMessage string  `json:"aiMessage"`
	AudioURL  *string `json:"audioUrl"`
}

type ContactInfoReply struct {
	Contacts []Contact
}

type ProjectListReply struct {
	Projects []Project
}

type ErrorReply struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func (*TextReply) isReply()        {}
func (*ContactInfoReply) isReply() {}
func (*ProjectListReply) isReply() {}
func (*ErrorReply) isReply()       {}

func (r *ContactInfoReply) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AIMessage *string   `json:"aiMessage"`
		Type      string    `json:"type"`
		Contacts  []Contact `json:"contacts"`
		AudioURL  *string   `json:"audioUrl"`
	}{Type: ReplyTypeContactInfo, Contacts: r.Contacts})
}

func (r *ProjectListReply) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AIMessage *string   `json:"aiMessage"`
		Type      string    `json:"type"`
		Projects  []Project `json:"projects"`
		AudioURL  *string   `json:"audioUrl"`
	}{Type: ReplyTypeProjectList, Projects: r.Projects})
}

// DecodeReply parses a chat response body into its concrete variant.
func DecodeReply(data []byte) (Reply, error) {
	var envelope struct {
		Type      string          `json:"type"`
		AIMessage *string         `json:"aiMessage"`
		AudioURL  *string         `json:"audioUrl"`
		Contacts  []Contact       `json:"contacts"`
		Projects  []Project       `json:"projects"`
		Error     string          `json:"error"`
		Details   json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode chat reply: %w", err)
	}

	switch {
	case envelope.Type == ReplyTypeContactInfo:
		return &ContactInfoReply{Contacts: envelope.Contacts}, nil
	case envelope.Type == ReplyTypeProjectList:
		return &ProjectListReply{Projects: envelope.Projects}, nil
	case envelope.Error != "":
		var details interface{}
		if len(envelope.Details) > 0 {
			json.Unmarshal(envelope.Details, &details)
		}
		return &ErrorReply{Error: envelope.Error, Details: details}, nil
	case envelope.AIMessage != nil:
		return &TextReply{AIMessage: *envelope.AIMessage, AudioURL: envelope.AudioURL}, nil
	default:
		return nil, fmt.Errorf("unrecognized chat reply")
	}
}

// CompletionRequest is the payload of the internal text-completion proxy.
type CompletionRequest struct {
	SystemPrompt string `json:"systemPrompt"`
	UserPrompt   string `json:"userPrompt"`
}

type CompletionResponse struct {
	AIMessage string `json:"aiMessage"`
}

// SpeechRequest is the payload of the internal speech-synthesis proxy.
type SpeechRequest struct {
	Text string `json:"text"`
}

type SpeechResponse struct {
	AudioURL string `json:"audioUrl"`
}

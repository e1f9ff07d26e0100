// Package client drives one visitor's conversation: the message list, the
// loader phase and audio playback of replies.
package client

import "portfolio-backend/internal/models"

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Phase drives the loader shown while a reply is produced.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseThinking
	PhaseProcessing
	PhaseSpeaking
)

func (p Phase) String() string {
	switch p {
	case PhaseThinking:
		return "thinking"
	case PhaseProcessing:
		return "processing"
	case PhaseSpeaking:
		return "speaking"
	default:
		return "idle"
	}
}

// Message is one entry in the conversation. Kind is "" for plain text or
// one of models.ReplyTypeContactInfo and models.ReplyTypeProjectList.
type Message struct {
	Sender   Sender           `json:"sender"`
	Text     string           `json:"text"`
	Expanded bool             `json:"isExpanded"`
	Kind     string           `json:"type,omitempty"`
	Contacts []models.Contact `json:"contacts,omitempty"`
	Projects []models.Project `json:"projects,omitempty"`
}

// State is a point-in-time copy of a Session.
type State struct {
	Messages           []Message         `json:"messages"`
	Value              string            `json:"value"`
	Loading            bool              `json:"loading"`
	WelcomeLoading     bool              `json:"welcomeLoading"`
	Phase              Phase             `json:"phase"`
	IsSpeaking         bool              `json:"isSpeaking"`
	Error              string            `json:"error,omitempty"`
	VoiceReady         bool              `json:"voiceReady"`
	HasVisited         bool              `json:"hasVisited"`
	HasClickedAbout    bool              `json:"hasClickedAbout"`
	HasClickedProjects bool              `json:"hasClickedProjects"`
	AboutLinks         map[string]string `json:"aboutLinks,omitempty"`
}

func (s State) clone() State {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	if s.AboutLinks != nil {
		out.AboutLinks = make(map[string]string, len(s.AboutLinks))
		for k, v := range s.AboutLinks {
			out.AboutLinks[k] = v
		}
	}
	return out
}

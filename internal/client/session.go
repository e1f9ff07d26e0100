package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"portfolio-backend/internal/llm"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/playback"
)

const (
	AboutQuestion  = "Tell me about Kristopher."
	ProjectsPrompt = "show me your projects"

	MsgNoResponse   = "Sorry, no response from AI."
	MsgContactError = "Error contacting AI."

	ttsOn = "true"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a reply is already in progress")
)

// Session is the conversation state machine for one visitor. Every flow
// takes a generation token when it starts; results that arrive after Skip
// or a newer flow has bumped the generation are dropped.
type Session struct {
	api    API
	player playback.Player
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	gen       uint64
	playing   playback.Handle
	cancel    context.CancelFunc
	listeners []func(State)
}

func NewSession(api API, player playback.Player, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		api:    api,
		player: player,
		logger: logger,
		state:  State{Messages: []Message{}},
	}
}

// OnChange registers fn to receive a snapshot after every transition.
// Listeners run outside the session lock, on whichever goroutine caused
// the change.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Session) SetValue(v string) {
	s.mutate(func(st *State) { st.Value = v })
}

func (s *Session) DismissError() {
	s.mutate(func(st *State) { st.Error = "" })
}

// Toggle flips the expanded flag of the AI message at index. Other
// messages keep their state.
func (s *Session) Toggle(index int) {
	s.mutate(func(st *State) {
		if index < 0 || index >= len(st.Messages) || st.Messages[index].Sender != SenderAI {
			return
		}
		st.Messages[index].Expanded = !st.Messages[index].Expanded
	})
}

// ClearAll empties the conversation and forgets the about and projects
// clicks.
func (s *Session) ClearAll() {
	s.mutate(func(st *State) {
		st.Messages = []Message{}
		st.HasClickedAbout = false
		st.HasClickedProjects = false
	})
}

// Skip stops any playback and in-flight request and returns to idle.
func (s *Session) Skip() {
	s.mu.Lock()
	s.gen++
	h := s.playing
	s.playing = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state.Phase = PhaseIdle
	s.state.Loading = false
	s.state.WelcomeLoading = false
	s.state.IsSpeaking = false
	notify := s.publishLocked()
	s.mu.Unlock()

	notify()
	if h != nil {
		h.Stop()
	}
}

// FocusInput plays the welcome greeting the first time the visitor
// focuses the input. It never appends a message.
func (s *Session) FocusInput(ctx context.Context) error {
	s.mu.Lock()
	if s.state.VoiceReady || s.state.HasVisited || s.state.Loading {
		s.mu.Unlock()
		return nil
	}
	token, runCtx, prev := s.beginLocked(ctx)
	s.state.VoiceReady = true
	s.state.HasVisited = true
	s.state.WelcomeLoading = true
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
	stopHandle(prev)

	reply, err := s.api.Chat(runCtx, "", models.TTSWelcome)
	s.mutateIf(token, func(st *State) { st.WelcomeLoading = false })
	if err != nil {
		s.logger.Warn("welcome greeting failed", "error", err)
		return err
	}

	text, ok := reply.(*models.TextReply)
	if !ok || text.AudioURL == nil || *text.AudioURL == "" {
		return nil
	}
	s.speak(ctx, token, *text.AudioURL)
	return nil
}

// Send appends text as a user message and resolves the server's reply.
// It returns ErrEmptyMessage or ErrBusy without touching state when the
// input is blank or another flow is running.
func (s *Session) Send(ctx context.Context, text string) error {
	return s.send(ctx, text, nil)
}

// Projects asks for the project list through the regular chat flow.
func (s *Session) Projects(ctx context.Context) error {
	return s.send(ctx, ProjectsPrompt, func(st *State) { st.HasClickedProjects = true })
}

func (s *Session) send(ctx context.Context, text string, mark func(*State)) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state.Loading || s.state.WelcomeLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	token, runCtx, prev := s.beginLocked(ctx)
	if mark != nil {
		mark(&s.state)
	}
	s.state.Messages = append(s.state.Messages, Message{Sender: SenderUser, Text: text})
	s.state.Value = ""
	s.state.Error = ""
	s.state.Loading = true
	s.state.Phase = PhaseThinking
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
	stopHandle(prev)

	defer s.release(token)

	reply, err := s.api.Chat(runCtx, text, ttsOn)
	if err != nil {
		s.logger.Warn("chat request failed", "error", err)
		s.fail(token, MsgContactError, errorText(err))
		return nil
	}

	switch r := reply.(type) {
	case *models.ContactInfoReply:
		s.mutateIf(token, func(st *State) {
			st.Messages = append(st.Messages, Message{
				Sender: SenderAI, Expanded: true, Kind: models.ReplyTypeContactInfo, Contacts: r.Contacts,
			})
		})
	case *models.ProjectListReply:
		s.mutateIf(token, func(st *State) {
			st.Messages = append(st.Messages, Message{
				Sender: SenderAI, Expanded: true, Kind: models.ReplyTypeProjectList, Projects: r.Projects,
			})
		})
	case *models.TextReply:
		if r.AIMessage == "" {
			s.fail(token, MsgNoResponse, "Unknown error")
			return nil
		}
		appended := s.mutateIf(token, func(st *State) {
			st.Messages = append(st.Messages, Message{Sender: SenderAI, Text: r.AIMessage})
			st.Phase = PhaseProcessing
		})
		if appended && r.AudioURL != nil && *r.AudioURL != "" {
			s.speak(ctx, token, *r.AudioURL)
		}
	case *models.ErrorReply:
		s.fail(token, MsgNoResponse, r.Error)
	default:
		s.fail(token, MsgNoResponse, "Unknown error")
	}
	return nil
}

// About fetches the biography, asks the completion proxy the fixed about
// question grounded on it, and narrates the answer. Only the answer joins
// the conversation; the question is implied by the about button.
func (s *Session) About(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Loading || s.state.WelcomeLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	token, runCtx, prev := s.beginLocked(ctx)
	s.state.HasClickedAbout = true
	s.state.AboutLinks = nil
	s.state.Error = ""
	s.state.Loading = true
	s.state.Phase = PhaseThinking
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
	stopHandle(prev)

	defer s.release(token)

	about, err := s.api.About(runCtx)
	if err != nil {
		s.logger.Warn("about lookup failed", "error", err)
		s.fail(token, MsgContactError, errorText(err))
		return nil
	}

	answer, err := s.api.Complete(runCtx, llm.SystemPrompt+"\n\n"+about.About, AboutQuestion)
	if err != nil || answer == "" {
		if err != nil {
			s.logger.Warn("about completion failed", "error", err)
		}
		s.fail(token, MsgNoResponse, errorText(err))
		return nil
	}

	appended := s.mutateIf(token, func(st *State) {
		st.Messages = append(st.Messages, Message{Sender: SenderAI, Text: answer})
		st.AboutLinks = about.Links
		st.Phase = PhaseProcessing
	})
	if !appended {
		return nil
	}

	audioURL, err := s.api.Speak(runCtx, answer)
	if err != nil || audioURL == "" {
		if err != nil {
			s.logger.Warn("about narration failed", "error", err)
		}
		return nil
	}
	s.speak(ctx, token, audioURL)
	return nil
}

// speak plays url for the flow holding token. Playback outlives the
// request context; only Skip or a newer flow stops it.
func (s *Session) speak(ctx context.Context, token uint64, url string) {
	if s.player == nil {
		return
	}

	var ended atomic.Bool
	h, err := playback.Play(context.WithoutCancel(ctx), s.player, url, playback.Callbacks{
		OnPlayStart: func() {
			s.mutateIf(token, func(st *State) {
				st.Phase = PhaseSpeaking
				st.IsSpeaking = true
			})
		},
		OnEnded: func() {
			ended.Store(true)
			s.mutateIf(token, func(st *State) {
				s.playing = nil
				st.Phase = PhaseIdle
				st.IsSpeaking = false
				st.Loading = false
			})
		},
	})
	if err != nil {
		s.logger.Warn("audio playback failed", "error", err)
		return
	}

	s.mu.Lock()
	superseded := token != s.gen
	if !superseded && !ended.Load() {
		s.playing = h
	}
	s.mu.Unlock()
	if superseded {
		h.Stop()
	}
}

// release ends a flow that is not waiting on playback.
func (s *Session) release(token uint64) {
	s.mutateIf(token, func(st *State) {
		if s.playing != nil {
			return
		}
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		st.Phase = PhaseIdle
		st.IsSpeaking = false
		st.Loading = false
	})
}

func (s *Session) fail(token uint64, text, errMsg string) {
	s.mutateIf(token, func(st *State) {
		st.Messages = append(st.Messages, Message{Sender: SenderAI, Text: text})
		st.Error = errMsg
	})
}

// beginLocked supersedes the running flow and returns the new token, a
// cancellable context for its requests and the playback it displaced.
func (s *Session) beginLocked(ctx context.Context) (uint64, context.Context, playback.Handle) {
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	prev := s.playing
	s.playing = nil
	s.state.IsSpeaking = false
	return s.gen, runCtx, prev
}

func (s *Session) mutate(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// mutateIf applies fn only while token is the current generation.
func (s *Session) mutateIf(token uint64, fn func(st *State)) bool {
	s.mu.Lock()
	if token != s.gen {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
	return true
}

func (s *Session) publishLocked() func() {
	if len(s.listeners) == 0 {
		return func() {}
	}
	snap := s.state.clone()
	listeners := append([]func(State){}, s.listeners...)
	return func() {
		for _, fn := range listeners {
			fn(snap)
		}
	}
}

func stopHandle(h playback.Handle) {
	if h != nil {
		h.Stop()
	}
}

func errorText(err error) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err == nil {
		return "Unknown error"
	}
	return "Network error"
}

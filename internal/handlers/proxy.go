package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"portfolio-backend/internal/llm"
	"portfolio-backend/internal/models"
)

// ProxyHandler exposes the raw completion and speech providers to trusted
// callers. Neither route touches the knowledge files or the audit log.
// Completion and speech can be served by different providers, so each
// route checks its own credential.
type ProxyHandler struct {
	completer        llm.Completer
	synthesizer      llm.Synthesizer
	hasCompletionKey func() bool
	hasSpeechKey     func() bool
	logger           *slog.Logger
}

func NewProxyHandler(completer llm.Completer, synthesizer llm.Synthesizer, hasCompletionKey, hasSpeechKey func() bool, logger *slog.Logger) *ProxyHandler {
	always := func() bool { return true }
	if hasCompletionKey == nil {
		hasCompletionKey = always
	}
	if hasSpeechKey == nil {
		hasSpeechKey = always
	}
	return &ProxyHandler{
		completer:        completer,
		synthesizer:      synthesizer,
		hasCompletionKey: hasCompletionKey,
		hasSpeechKey:     hasSpeechKey,
		logger:           logger,
	}
}

func (h *ProxyHandler) Completion(w http.ResponseWriter, r *http.Request) {
	var req models.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("OpenAI request failed", nil))
		return
	}
	if !h.hasCompletionKey() {
		writeJSON(w, http.StatusInternalServerError, errorResp("Missing OpenAI API key", nil))
		return
	}

	msg, err := h.completer.Complete(r.Context(), llm.CompletionRequest{
		System:      req.SystemPrompt,
		User:        req.UserPrompt,
		MaxTokens:   llm.ProxyMaxTokens,
		Temperature: llm.Temperature,
	})
	if err != nil {
		h.logger.Error("completion proxy failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("OpenAI request failed", nil))
		return
	}
	writeJSON(w, http.StatusOK, models.CompletionResponse{AIMessage: msg})
}

func (h *ProxyHandler) Speech(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("Server error", err.Error()))
		return
	}
	text, ok := body["text"].(string)
	if !ok || text == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("Missing or invalid text", nil))
		return
	}
	if !h.hasSpeechKey() {
		writeJSON(w, http.StatusInternalServerError, errorResp("Missing OpenAI API key", nil))
		return
	}

	audioURL, err := h.synthesizer.Synthesize(r.Context(), text, llm.VoiceInstructions)
	if err != nil {
		h.logger.Error("speech proxy failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("TTS request failed", nil))
		return
	}
	writeJSON(w, http.StatusOK, models.SpeechResponse{AudioURL: audioURL})
}

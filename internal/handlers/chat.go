package handlers

import (
	"context"
	"io"
	"net/http"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/chat"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/ratelimit"
)

// maxChatBody bounds the raw chat payload read from the client.
const maxChatBody = 64 << 10

type chatPipeline interface {
	Handle(ctx context.Context, in chat.Inbound) chat.Outcome
}

type ChatHandler struct {
	pipeline chatPipeline
}

func NewChatHandler(pipeline chatPipeline) *ChatHandler {
	return &ChatHandler{pipeline: pipeline}
}

// Chat passes the raw body to the pipeline so that malformed JSON is
// validated and audited like any other invalid payload.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxChatBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request", err.Error()))
		return
	}

	out := h.pipeline.Handle(r.Context(), chat.Inbound{
		ClientKey: ratelimit.ClientKey(r),
		Token:     auth.BearerToken(r),
		Body:      body,
	})

	if out.RateLimit != nil {
		middleware.SetRateLimitHeaders(w, *out.RateLimit)
	}
	writeJSON(w, out.Status, out.Reply)
}

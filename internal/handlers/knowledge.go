package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"portfolio-backend/internal/models"
)

type knowledgeReader interface {
	GetKnowledge(ctx context.Context) (*models.Knowledge, error)
}

type KnowledgeHandler struct {
	knowledge knowledgeReader
	logger    *slog.Logger
}

func NewKnowledgeHandler(knowledge knowledgeReader, logger *slog.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge, logger: logger}
}

func (h *KnowledgeHandler) About(w http.ResponseWriter, r *http.Request) {
	k, err := h.knowledge.GetKnowledge(r.Context())
	if err != nil {
		h.logger.Error("failed to load knowledge files", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to load knowledge files.", nil))
		return
	}
	links := k.Links
	if links == nil {
		links = map[string]string{}
	}
	writeJSON(w, http.StatusOK, models.AboutResponse{About: k.About, Links: links})
}

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"portfolio-backend/internal/flags"
	"portfolio-backend/internal/models"
)

type logBrowser interface {
	List(ctx context.Context, page, pageSize int) (*models.LogPage, error)
	Clear(ctx context.Context) (int64, error)
}

type flagManager interface {
	List(ctx context.Context) ([]*models.FeatureFlag, error)
	Create(ctx context.Context, in flags.Input) error
	Patch(ctx context.Context, in flags.Input) error
	Delete(ctx context.Context, key string) error
}

// AdminHandler serves the interaction log browser and feature flag editor.
// Routes are mounted behind RequireUser.
type AdminHandler struct {
	logs   logBrowser
	flags  flagManager
	logger *slog.Logger
}

func NewAdminHandler(logs logBrowser, flagSvc flagManager, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{logs: logs, flags: flagSvc, logger: logger}
}

func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := h.logs.List(r.Context(), page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, "Failed to load logs", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.logs.Clear(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, "Failed to clear logs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "deleted": deleted})
}

func (h *AdminHandler) ListFlags(w http.ResponseWriter, r *http.Request) {
	list, err := h.flags.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, "Failed to load feature flags", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) CreateFlag(w http.ResponseWriter, r *http.Request) {
	var in flags.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body", nil))
		return
	}
	if err := h.flags.Create(r.Context(), in); err != nil {
		handleServiceError(w, h.logger, "Failed to create feature flag", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) PatchFlag(w http.ResponseWriter, r *http.Request) {
	var in flags.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body", nil))
		return
	}
	if err := h.flags.Patch(r.Context(), in); err != nil {
		handleServiceError(w, h.logger, "Failed to update feature flag", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteFlag takes the key from the query string, falling back to a JSON
// body for clients that send one with DELETE.
func (h *AdminHandler) DeleteFlag(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" && r.Body != nil {
		var body struct {
			Key string `json:"key"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		key = body.Key
	}
	if err := h.flags.Delete(r.Context(), key); err != nil {
		handleServiceError(w, h.logger, "Failed to delete feature flag", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

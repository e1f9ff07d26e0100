package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"portfolio-backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string, details interface{}) models.ErrorReply {
	return models.ErrorReply{Error: message, Details: details}
}

// handleServiceError maps classified errors onto status codes. Unclassified
// and persistence failures are logged and reported without internals.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, fallback string, err error) {
	if errors.Is(err, models.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("Not found", nil))
		return
	}

	var classified *models.Error
	if errors.As(err, &classified) && classified.Kind == models.KindInvalidRequest {
		var details interface{}
		var verr validation.Errors
		if errors.As(classified.Err, &verr) {
			details = verr
		}
		writeJSON(w, http.StatusBadRequest, errorResp(classified.Message, details))
		return
	}

	logger.Error(fallback, "error", err)
	status := http.StatusInternalServerError
	if classified != nil {
		status = classified.StatusCode()
	}
	writeJSON(w, status, errorResp(fallback, nil))
}

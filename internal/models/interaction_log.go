package models

import (
	"time"

	"github.com/google/uuid"
)

type LogStatus string

const (
	LogStatusSuccess        LogStatus = "success"
	LogStatusInvalidRequest LogStatus = "invalid-request"
	LogStatusRateLimit      LogStatus = "rate-limit"
	LogStatusError          LogStatus = "error"
)

// InteractionLogEntry is one audit row per handled chat request.
type InteractionLogEntry struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    *string   `json:"user_id,omitempty"`
	Route     string    `json:"route"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Status    LogStatus `json:"status"`
	Error     *string   `json:"error,omitempty"`
}

// LogPage is one page of the admin log listing.
type LogPage struct {
	Logs     []*InteractionLogEntry `json:"logs"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}

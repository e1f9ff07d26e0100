// Package interactionlog is the audit trail of chat requests.
package interactionlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	writeTimeout = 5 * time.Second
)

// Publisher fans new rows out to live viewers.
type Publisher interface {
	PublishLog(ctx context.Context, entry *models.InteractionLogEntry)
}

type Recorder struct {
	store  repository.LogStore
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewRecorder(store repository.LogStore, pub Publisher, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, pub: pub, logger: logger, now: time.Now}
}

// Record writes entry and never reports failure: store errors and panics
// are logged and dropped so they cannot replace the response being served.
// The write outlives the request context.
func (r *Recorder) Record(ctx context.Context, entry *models.InteractionLogEntry) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("interaction log panicked", "panic", rec, "route", entry.Route)
		}
	}()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.store.Insert(writeCtx, entry); err != nil {
		r.logger.Error("interaction log write failed",
			"error", err,
			"route", entry.Route,
			"status", string(entry.Status),
		)
		return
	}
	if r.pub != nil {
		r.pub.PublishLog(writeCtx, entry)
	}
}

// List returns one page, newest first. page is 1-based; out-of-range
// arguments are clamped.
func (r *Recorder) List(ctx context.Context, page, pageSize int) (*models.LogPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	logs, total, err := r.store.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, models.NewError(models.KindPersistenceFailure, "failed to list logs", err)
	}
	if logs == nil {
		logs = []*models.InteractionLogEntry{}
	}
	return &models.LogPage{Logs: logs, Total: total, Page: page, PageSize: pageSize}, nil
}

// Clear removes every row. It is the only way rows are deleted.
func (r *Recorder) Clear(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteAll(ctx)
	if err != nil {
		return 0, models.NewError(models.KindPersistenceFailure, "failed to clear logs", err)
	}
	r.logger.Info("interaction logs cleared", "rows", n)
	return n, nil
}

// Entry builds a row for route. userID and errMsg are optional.
func Entry(route string, userID string, prompt, response string, status models.LogStatus, errMsg string) *models.InteractionLogEntry {
	e := &models.InteractionLogEntry{
		Route:    route,
		Prompt:   prompt,
		Response: response,
		Status:   status,
	}
	if userID != "" {
		e.UserID = &userID
	}
	if errMsg != "" {
		e.Error = &errMsg
	}
	return e
}

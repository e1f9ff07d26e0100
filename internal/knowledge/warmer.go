package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
)

const warmerRetryDelay = 30 * time.Second

// Warmer refreshes a Repository on a cron schedule so requests rarely pay
// for a cold fill.
type Warmer struct {
	repo     *Repository
	cron     string
	logger   *slog.Logger
	stopChan chan struct{}
}

func NewWarmer(repo *Repository, cronExpr string, logger *slog.Logger) (*Warmer, error) {
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid knowledge refresh cron expression: %s", cronExpr)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Warmer{
		repo:     repo,
		cron:     cronExpr,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

func (w *Warmer) Start() {
	go w.loop()
	w.logger.Info("knowledge warmer started", "cron", w.cron)
}

func (w *Warmer) Stop() {
	select {
	case <-w.stopChan:
		return
	default:
		close(w.stopChan)
	}
}

func (w *Warmer) loop() {
	// Warm on startup as well as on schedule.
	w.runOnce()

	for {
		next, err := gronx.NextTickAfter(w.cron, time.Now().UTC(), false)
		wait := time.Until(next)
		if err != nil {
			w.logger.Error("knowledge warmer next tick failed", "cron", w.cron, "error", err)
			wait = warmerRetryDelay
		}

		timer := time.NewTimer(wait)
		select {
		case <-w.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			w.runOnce()
		}
	}
}

func (w *Warmer) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := w.repo.Refresh(ctx); err != nil {
		w.logger.Error("knowledge refresh failed", "error", err)
		return
	}
	w.logger.Debug("knowledge refreshed")
}

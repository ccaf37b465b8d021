// Package tracker polls the observer's live in-game location and reports
// system changes.
package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LocationSource reports which solar system a character is currently in.
// The production implementation is the authenticated game API client; how
// its token gets obtained and refreshed is outside this package.
type LocationSource interface {
	FetchLocation(ctx context.Context, characterID int64) (int64, error)
}

// Watcher polls a LocationSource and invokes a handler whenever the
// observer's system changes. The first successful poll always counts as a
// change.
type Watcher struct {
	source      LocationSource
	characterID int64
	interval    time.Duration
	onChange    func(systemID int64)
	logger      *zap.Logger
}

// New builds a Watcher. The upstream location endpoint is cached for about
// five seconds, so an interval below that just burns requests.
func New(source LocationSource, characterID int64, interval time.Duration, onChange func(systemID int64), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		source:      source,
		characterID: characterID,
		interval:    interval,
		onChange:    onChange,
		logger:      logger.Named("tracker"),
	}
}

// Run polls until the context is cancelled. A failed poll is logged and
// retried on the next tick; it never terminates the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("Tracking observer location",
		zap.Int64("character_id", w.characterID),
		zap.Duration("interval", w.interval))

	var last int64
	poll := func() {
		systemID, err := w.source.FetchLocation(ctx, w.characterID)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warn("Location poll failed", zap.Error(err))
			}
			return
		}
		if systemID == last {
			return
		}
		w.logger.Info("Observer changed system",
			zap.Int64("from", last),
			zap.Int64("to", systemID))
		last = systemID
		w.onChange(systemID)
	}

	poll()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			poll()
		}
	}
}

package worker

import (
	"context"
	"log/slog"
	"time"

	"studio-booking/internal/usecase/commands"
)

// OutboxRelayWorker drains the booking event outbox. A pass keeps
// relaying full batches until the outbox is empty or a batch fails.
type OutboxRelayWorker struct {
	relay     commands.EventRelay
	interval  time.Duration
	maxRounds int
	logger    *slog.Logger
}

func NewOutboxRelayWorker(relay commands.EventRelay, interval time.Duration, logger *slog.Logger) *OutboxRelayWorker {
	return &OutboxRelayWorker{
		relay:     relay,
		interval:  interval,
		maxRounds: 10,
		logger:    logger.With("worker", "outbox_relay"),
	}
}

func (w *OutboxRelayWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce reports the number of events published in this pass.
func (w *OutboxRelayWorker) RunOnce(ctx context.Context) int {
	total := 0
	for range w.maxRounds {
		if ctx.Err() != nil {
			return total
		}
		n, err := w.relay.RelayPending(ctx)
		if err != nil {
			w.logger.Error("failed to relay booking events", "error", err, "published", total)
			return total
		}
		total += n
		if n == 0 {
			break
		}
	}
	if total > 0 {
		w.logger.Info("booking events published", "count", total)
	}
	return total
}

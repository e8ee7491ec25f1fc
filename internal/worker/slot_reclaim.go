package worker

import (
	"context"
	"log/slog"
	"time"

	"studio-booking/internal/usecase/commands"
)

// SlotReclaimWorker periodically frees reserved slots that no saved booking
// owns.
type SlotReclaimWorker struct {
	reclaimer commands.SlotReclaimer
	interval  time.Duration
	logger    *slog.Logger
}

func NewSlotReclaimWorker(reclaimer commands.SlotReclaimer, interval time.Duration, logger *slog.Logger) *SlotReclaimWorker {
	return &SlotReclaimWorker{reclaimer: reclaimer, interval: interval, logger: logger.With("worker", "slot_reclaim")}
}

func (w *SlotReclaimWorker) Start(ctx context.Context) {
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

// RunOnce reports how many bookings had their slots reclaimed.
func (w *SlotReclaimWorker) RunOnce(ctx context.Context) int {
	n, err := w.reclaimer.ReclaimOrphans(ctx)
	if err != nil {
		w.logger.Error("failed to reclaim orphaned slots", "error", err)
	}
	if n > 0 {
		w.logger.Info("orphaned slots reclaimed", "bookings", n)
	}
	return n
}

package worker

import (
	"context"
	"log/slog"
	"time"

	"studio-booking/internal/usecase/commands"
)

// LifecycleWorker moves price tables UPCOMING -> ACTIVE -> ENDED as their
// validity dates pass.
type LifecycleWorker struct {
	catalog  commands.CatalogCommands
	interval time.Duration
	logger   *slog.Logger
}

func NewLifecycleWorker(catalog commands.CatalogCommands, interval time.Duration, logger *slog.Logger) *LifecycleWorker {
	return &LifecycleWorker{catalog: catalog, interval: interval, logger: logger.With("worker", "catalog_lifecycle")}
}

// Start runs one pass immediately, then one per interval until ctx is done.
func (w *LifecycleWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("worker started", "interval", w.interval)
	w.RunOnce(ctx)

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

func (w *LifecycleWorker) RunOnce(ctx context.Context) {
	n, err := w.catalog.AdvanceLifecycle(ctx)
	if err != nil {
		w.logger.Error("failed to advance price table lifecycle", "error", err)
		return
	}
	if n > 0 {
		w.logger.Info("price table lifecycle advanced", "tables", n)
	}
}

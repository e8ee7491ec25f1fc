package components

import (
	"context"
	"log/slog"

	"studio-booking/internal/pkg/config"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewLifecycleWorker,
		NewOutboxRelayWorker,
		NewSlotReclaimWorker,
	),
	fx.Invoke(StartWorkers),
)

func NewLifecycleWorker(catalog commands.CatalogCommands, cfg config.Config, logger *slog.Logger) *worker.LifecycleWorker {
	return worker.NewLifecycleWorker(catalog, cfg.Worker.LifecycleInterval, logger)
}

func NewOutboxRelayWorker(relay commands.EventRelay, cfg config.Config, logger *slog.Logger) *worker.OutboxRelayWorker {
	return worker.NewOutboxRelayWorker(relay, cfg.Worker.OutboxInterval, logger)
}

func NewSlotReclaimWorker(reclaimer commands.SlotReclaimer, cfg config.Config, logger *slog.Logger) *worker.SlotReclaimWorker {
	return worker.NewSlotReclaimWorker(reclaimer, cfg.Worker.ReclaimInterval, logger)
}

// StartWorkers runs every worker for the lifetime of the app.
func StartWorkers(lc fx.Lifecycle, lifecycle *worker.LifecycleWorker, relay *worker.OutboxRelayWorker, reclaim *worker.SlotReclaimWorker) {
	ctx, cancel := context.WithCancel(context.Background())
	const workers = 3
	done := make(chan struct{}, workers)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() { lifecycle.Start(ctx); done <- struct{}{} }()
			go func() { relay.Start(ctx); done <- struct{}{} }()
			go func() { reclaim.Start(ctx); done <- struct{}{} }()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			for range workers {
				select {
				case <-done:
				case <-stopCtx.Done():
					return stopCtx.Err()
				}
			}
			return nil
		},
	})
}

package components

import (
	"log/slog"

	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/usecase"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewCatalogCommands,
		commands.NewBookingCommands,
		NewEventRelay,
		NewSlotReclaimer,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewPriceQuoter,
		queries.NewBookingQueries,
		queries.NewCatalogQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

func NewEventRelay(outbox commands.Outbox, publisher commands.EventPublisher, cfg config.Config, clk clock.Clock, logger *slog.Logger) commands.EventRelay {
	return commands.NewEventRelay(outbox, publisher, cfg.Worker.OutboxBatchSize, clk, logger)
}

func NewSlotReclaimer(ledger commands.SlotLedger, bookings commands.BookingRepository, cfg config.Config, clk clock.Clock, logger *slog.Logger) commands.SlotReclaimer {
	return commands.NewSlotReclaimer(ledger, bookings, cfg.Worker.ReclaimGrace, clk, logger)
}

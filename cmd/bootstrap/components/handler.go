package components

import (
	"studio-booking/internal/handler"
	"studio-booking/internal/handler/api"
	"studio-booking/internal/handler/middleware"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		NewBookingHandler,
		NewPricingHandler,
		NewHandlers,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewBookingHandler(cmds commands.BookingCommands, qs queries.BookingQueries, cfg config.Config) *api.BookingHandler {
	return api.NewBookingHandler(cmds, qs, cfg.Booking.RetryAfter)
}

func NewPricingHandler(quoter queries.PriceQuoter, catalog commands.CatalogCommands, tables queries.CatalogQueries, cfg config.Config) *api.PricingHandler {
	return api.NewPricingHandler(quoter, catalog, tables, cfg.Booking.RetryAfter)
}

func NewHandlers(b *api.BookingHandler, p *api.PricingHandler) handler.Handlers {
	return handler.Handlers{Booking: b, Pricing: p}
}

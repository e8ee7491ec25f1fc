package bootstrap

import (
	"time"

	"studio-booking/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		NewBusinessLocation,
	),
)

// NewBusinessLocation is the zone used to read wall clock times and to
// decide the calendar date of a booking.
func NewBusinessLocation(cfg config.Config) *time.Location {
	return cfg.Booking.Location()
}

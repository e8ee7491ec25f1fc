package commands

import (
	"context"
	"log/slog"
	"time"

	"studio-booking/internal/infra"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/usecase/shared"
)

// SlotReclaimer frees slots left behind by bookings that never got saved or
// whose cancellation did not release them.
type SlotReclaimer interface {
	// ReclaimOrphans releases every booking's slots reserved longer than the
	// grace period ago when the booking is missing or canceled, and reports
	// how many bookings it released.
	ReclaimOrphans(ctx context.Context) (int, error)
}

type slotReclaimerImpl struct {
	ledger   SlotLedger
	bookings BookingRepository
	grace    time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

func NewSlotReclaimer(ledger SlotLedger, bookings BookingRepository, grace time.Duration, clk clock.Clock, logger *slog.Logger) SlotReclaimer {
	if grace <= 0 {
		grace = 5 * time.Minute
	}
	return &slotReclaimerImpl{ledger: ledger, bookings: bookings, grace: grace, clock: clk, logger: logger}
}

func (r *slotReclaimerImpl) ReclaimOrphans(ctx context.Context) (int, error) {
	holders, err := r.ledger.Holders(ctx, r.clock.Now().Add(-r.grace))
	if err != nil {
		return 0, shared.Transient(err, "listing slot holders")
	}

	released := 0
	for _, id := range holders {
		b, err := r.bookings.FindByID(ctx, id)
		switch {
		case err == nil && !b.IsCanceled():
			continue
		case err != nil && !infra.IsKind(err, infra.KindNotFound):
			return released, shared.Transient(err, "loading slot holder")
		}
		if err := r.ledger.Release(ctx, id); err != nil {
			return released, shared.Transient(err, "releasing orphaned slots")
		}
		r.logger.Warn("orphaned slots released", "booking_id", id)
		released++
	}
	return released, nil
}

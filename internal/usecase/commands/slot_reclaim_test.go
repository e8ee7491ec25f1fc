//go:build unit

package commands_test

import (
	"testing"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReclaimOrphans(t *testing.T) {
	f := newFixture(t).withSaturdayPricing(t)
	reclaimer := commands.NewSlotReclaimer(f.ledger, f.bookings, 5*time.Minute, f.clock, f.logger)
	reserve := func(resourceID uuid.UUID, startHour, endHour int) uuid.UUID {
		t.Helper()
		i, err := ledger.NewInterval(saturday(startHour), saturday(endHour))
		require.NoError(t, err)
		bookingID := uuid.New()
		require.NoError(t, f.ledger.Reserve(f.ctx, ledger.NewReservedSlot(resourceID, i, bookingID)))
		return bookingID
	}

	kept, err := f.cmd.CreateBooking(f.ctx, f.request(&f.roomA, 19, 21))
	require.NoError(t, err)

	// canceled without its slots being released
	canceled, err := f.cmd.CreateBooking(f.ctx, f.request(&f.roomA, 10, 12))
	require.NoError(t, err)
	b := canceled.Booking
	require.True(t, b.Cancel(f.clock.Now()))
	event, err := booking.NewEvent(booking.EventCanceled, b, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.bookings.MarkCanceled(f.ctx, b, event))

	reserve(f.roomB, 19, 21)

	t.Run("recent reservations are left alone", func(t *testing.T) {
		n, err := reclaimer.ReclaimOrphans(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.False(t, f.free(t, f.roomB, 19, 21))
	})

	t.Run("stale slots without a live booking are released", func(t *testing.T) {
		f.clock.Add(10 * time.Minute)
		inFlight := reserve(f.roomB, 8, 9)

		n, err := reclaimer.ReclaimOrphans(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.True(t, f.free(t, f.roomB, 19, 21))
		assert.True(t, f.free(t, f.roomA, 10, 12))
		assert.False(t, f.free(t, f.roomA, 19, 21), "booking %s keeps its slot", kept.Booking.ID())
		assert.False(t, f.free(t, f.roomB, 8, 9), "reservation %s is still within the grace period", inFlight)
	})
}

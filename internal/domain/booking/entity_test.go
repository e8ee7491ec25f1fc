//go:build unit

package booking_test

import (
	"math"
	"testing"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func studioType(t *testing.T) *studio.StudioType {
	t.Helper()
	st, err := studio.NewStudioType(studio.StudioTypeParams{
		ID:              uuid.New(),
		Name:            "Large",
		MinArea:         40,
		MaxArea:         80,
		OpenTime:        pricing.MustTimeOfDay("08:00"),
		ClosingBoundary: pricing.MustTimeOfDay("22:00"),
		LatestEndTime:   pricing.MustTimeOfDay("24:00"),
	})
	require.NoError(t, err)
	return st
}

func TestSlotWindow(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	st := studioType(t)
	at := func(day, hour, minute int) time.Time {
		return time.Date(2026, time.October, day, hour, minute, 0, 0, loc)
	}

	cases := []struct {
		name       string
		start, end time.Time
		want       pricing.TimeWindow
		errIs      error
	}{
		{
			name:  "inside operating hours",
			start: at(17, 19, 0), end: at(17, 21, 0),
			want: pricing.TimeWindow{Start: 19 * 60, End: 21 * 60},
		},
		{
			name:  "ends at midnight",
			start: at(17, 22, 0), end: at(18, 0, 0),
			want: pricing.TimeWindow{Start: 22 * 60, End: pricing.MinutesPerDay},
		},
		{
			name:  "start equals end",
			start: at(17, 10, 0), end: at(17, 10, 0),
			errIs: booking.ErrInvalidTimeWindow,
		},
		{
			name:  "start after end",
			start: at(17, 12, 0), end: at(17, 10, 0),
			errIs: booking.ErrInvalidTimeWindow,
		},
		{
			name:  "before opening",
			start: at(17, 7, 30), end: at(17, 9, 0),
			errIs: booking.ErrInvalidTimeWindow,
		},
		{
			name:  "crosses midnight",
			start: at(17, 23, 0), end: at(18, 1, 0),
			errIs: booking.ErrInvalidTimeWindow,
		},
		{
			name:  "not minute aligned",
			start: at(17, 10, 0).Add(30 * time.Second), end: at(17, 11, 0),
			errIs: booking.ErrInvalidTimeWindow,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			date, w, err := booking.SlotWindow(st, tc.start.UTC(), tc.end.UTC(), loc)
			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, pricing.NewDate(2026, time.October, 17), date)
			assert.Equal(t, tc.want, w)
		})
	}
}

func TestBooking(t *testing.T) {
	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	interval, err := ledger.NewInterval(now.Add(24*time.Hour), now.Add(26*time.Hour))
	require.NoError(t, err)
	resourceID := uuid.New()
	params := func() booking.NewBookingParams {
		return booking.NewBookingParams{
			RequestID:    uuid.New(),
			UserID:       uuid.New(),
			StudioTypeID: uuid.New(),
			LocationID:   uuid.New(),
			PhoneNumber:  " 0901234567 ",
			Slots:        []booking.Slot{{ResourceID: resourceID, Interval: interval}},
			Lines: []booking.PriceLine{
				{ResourceID: resourceID, StudioPrice: 300000, ServicePrice: 20000, Total: 320000},
			},
			Now: now,
		}
	}

	t.Run("confirmed with summed snapshot", func(t *testing.T) {
		b, err := booking.NewBooking(params())
		require.NoError(t, err)

		assert.Equal(t, booking.StatusConfirmed, b.Status())
		assert.Equal(t, "0901234567", b.PhoneNumber())
		assert.Equal(t, int64(320000), b.Snapshot().Total)
		assert.Equal(t, b.Snapshot().StudioPrice+b.Snapshot().ServicePrice+b.Snapshot().OvertimeFee, b.Snapshot().Total)
		require.Len(t, b.ReservedSlots(), 1)
		assert.Equal(t, b.ID(), b.ReservedSlots()[0].BookingID())
	})

	t.Run("no slots", func(t *testing.T) {
		p := params()
		p.Slots, p.Lines = nil, nil
		_, err := booking.NewBooking(p)
		require.ErrorIs(t, err, booking.ErrNoSlots)
	})

	t.Run("missing phone", func(t *testing.T) {
		p := params()
		p.PhoneNumber = "  "
		_, err := booking.NewBooking(p)
		require.ErrorIs(t, err, booking.ErrInvalidContacts)
	})

	t.Run("snapshot overflow", func(t *testing.T) {
		p := params()
		p.Slots = append(p.Slots, p.Slots[0])
		p.Lines = []booking.PriceLine{{Total: math.MaxInt64}, {Total: 1}}
		_, err := booking.NewBooking(p)
		require.ErrorIs(t, err, pricing.ErrAmountOverflow)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		b, err := booking.NewBooking(params())
		require.NoError(t, err)

		assert.True(t, b.Cancel(now.Add(time.Hour)))
		assert.False(t, b.Cancel(now.Add(2*time.Hour)))
		assert.True(t, b.IsCanceled())
		assert.Equal(t, now.Add(time.Hour), b.UpdatedAt())
	})

	t.Run("only owner or admin may cancel", func(t *testing.T) {
		b, err := booking.NewBooking(params())
		require.NoError(t, err)

		assert.True(t, b.CanBeCanceledBy(b.UserID(), false))
		assert.False(t, b.CanBeCanceledBy(uuid.New(), false))
		assert.True(t, b.CanBeCanceledBy(uuid.New(), true))
	})
}

func TestStatus(t *testing.T) {
	s, err := booking.ParseStatus("canceled")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCanceled, s)

	_, err = booking.ParseStatus("pending")
	require.ErrorIs(t, err, booking.ErrInvalidStatus)

	_, err = booking.Status(9).MarshalText()
	require.ErrorIs(t, err, booking.ErrInvalidStatus)
}

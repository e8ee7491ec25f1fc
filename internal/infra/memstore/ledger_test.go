//go:build unit

package memstore_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/infra/memstore"
	"studio-booking/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interval(t *testing.T, startHour, endHour int) ledger.Interval {
	t.Helper()
	base := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)
	i, err := ledger.NewInterval(base.Add(time.Duration(startHour)*time.Hour), base.Add(time.Duration(endHour)*time.Hour))
	require.NoError(t, err)
	return i
}

func newLedger() *memstore.Ledger {
	return memstore.NewLedger(clock.NewMockClock(time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)))
}

func TestLedger_Reserve(t *testing.T) {
	ctx := context.Background()
	resourceID := uuid.New()

	t.Run("overlapping reservation is rejected", func(t *testing.T) {
		l := newLedger()
		require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(resourceID, interval(t, 10, 12), uuid.New())))

		err := l.Reserve(ctx, ledger.NewReservedSlot(resourceID, interval(t, 11, 13), uuid.New()))
		require.ErrorIs(t, err, ledger.ErrSlotConflict)
	})

	t.Run("adjacent intervals do not overlap", func(t *testing.T) {
		l := newLedger()
		require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(resourceID, interval(t, 10, 12), uuid.New())))
		require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(resourceID, interval(t, 12, 14), uuid.New())))
	})

	t.Run("other resources are independent", func(t *testing.T) {
		l := newLedger()
		require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(resourceID, interval(t, 10, 12), uuid.New())))
		require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(uuid.New(), interval(t, 10, 12), uuid.New())))
	})

	t.Run("the same booking cannot hold a resource twice", func(t *testing.T) {
		l := newLedger()
		slot := ledger.NewReservedSlot(resourceID, interval(t, 10, 12), uuid.New())
		require.NoError(t, l.Reserve(ctx, slot))
		require.ErrorIs(t, l.Reserve(ctx, slot), ledger.ErrSlotConflict)

		overlapping := ledger.NewReservedSlot(resourceID, interval(t, 11, 13), slot.BookingID())
		require.ErrorIs(t, l.Reserve(ctx, overlapping), ledger.ErrSlotConflict)
	})
}

func TestLedger_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	resourceID := uuid.New()
	want := interval(t, 19, 21)

	const workers = 32
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := l.Reserve(ctx, ledger.NewReservedSlot(resourceID, want, uuid.New()))
			switch {
			case err == nil:
				successes.Add(1)
			case assert.ErrorIs(t, err, ledger.ErrSlotConflict):
				conflicts.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
}

func TestLedger_Release(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	resourceID := uuid.New()
	bookingID := uuid.New()
	slot := interval(t, 10, 12)

	require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(resourceID, slot, bookingID)))
	ok, err := l.IsAvailable(ctx, resourceID, slot)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, bookingID))
	ok, err = l.IsAvailable(ctx, resourceID, slot)
	require.NoError(t, err)
	assert.True(t, ok)

	// releasing twice and releasing an unknown booking are both no-ops
	require.NoError(t, l.Release(ctx, bookingID))
	require.NoError(t, l.Release(ctx, uuid.New()))

	require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(resourceID, slot, uuid.New())))
}

func TestLedger_ReadsDoNotBlockWriters(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	resourceID := uuid.New()
	require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(resourceID, interval(t, 0, 1), uuid.New())))

	whole := interval(t, 0, 24)
	stop := make(chan struct{})
	var readers sync.WaitGroup
	for range 8 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_, _ = l.IsAvailable(ctx, resourceID, whole)
				}
			}
		}()
	}

	for hour := 1; hour < 24; hour++ {
		err := l.Reserve(ctx, ledger.NewReservedSlot(resourceID, interval(t, hour, hour+1), uuid.New()))
		assert.NoError(t, err, "hour %d", hour)
	}
	close(stop)
	readers.Wait()
}

func TestLedger_Holders(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC))
	l := memstore.NewLedger(clk)
	resourceID := uuid.New()

	old := uuid.New()
	require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(resourceID, interval(t, 8, 9), old)))
	require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(uuid.New(), interval(t, 8, 9), old)))
	clk.Add(10 * time.Minute)
	recent := uuid.New()
	require.NoError(t, l.Reserve(ctx, ledger.NewReservedSlot(resourceID, interval(t, 10, 11), recent)))

	holders, err := l.Holders(ctx, clk.Now().Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{old}, holders)

	holders, err = l.Holders(ctx, clk.Now().Add(time.Second))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{old, recent}, holders)
}

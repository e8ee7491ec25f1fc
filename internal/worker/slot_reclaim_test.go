//go:build unit

package worker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/infra/memstore"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotReclaimWorker_RunOnce(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewMockClock(time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	slots := memstore.NewLedger(clk)
	resourceID := uuid.New()
	period, err := ledger.NewInterval(clk.Now().Add(time.Hour), clk.Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.NoError(t, slots.Reserve(ctx, ledger.NewReservedSlot(resourceID, period, uuid.New())))

	reclaimer := commands.NewSlotReclaimer(slots, memstore.NewBookings(), time.Minute, clk, logger)
	w := worker.NewSlotReclaimWorker(reclaimer, time.Second, logger)

	assert.Equal(t, 0, w.RunOnce(ctx))

	clk.Add(2 * time.Minute)
	assert.Equal(t, 1, w.RunOnce(ctx))
	free, err := slots.IsAvailable(ctx, resourceID, period)
	require.NoError(t, err)
	assert.True(t, free)

	assert.Equal(t, 0, w.RunOnce(ctx))
}

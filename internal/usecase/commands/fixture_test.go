//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/domain/user"
	"studio-booking/internal/infra/cache"
	"studio-booking/internal/infra/memstore"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"
	"studio-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var ict = time.FixedZone("ICT", 7*60*60)

// fixture is a studio with two rooms at one location, priced at 100000 per
// hour with 150000 per hour on Saturdays 18:00-22:00. Overtime runs from
// 22:00 to 23:00 at 3000 per minute.
type fixture struct {
	ctx        context.Context
	clock      *clock.MockClock
	logger     *slog.Logger
	catalog    *memstore.Catalog
	ledger     *memstore.Ledger
	bookings   *memstore.Bookings
	directory  *memstore.Directory
	quoter     queries.PriceQuoter
	catalogCmd commands.CatalogCommands
	cmd        commands.BookingCommands

	studioTypeID uuid.UUID
	locationID   uuid.UUID
	roomA        uuid.UUID
	roomB        uuid.UUID
	serviceID    uuid.UUID
	customer     shared.Actor
	admin        shared.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:          context.Background(),
		clock:        clock.NewMockClock(time.Date(2026, time.October, 16, 9, 0, 0, 0, ict)),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		catalog:      memstore.NewCatalog(),
		bookings:     memstore.NewBookings(),
		directory:    memstore.NewDirectory(),
		studioTypeID: uuid.New(),
		locationID:   uuid.New(),
		roomA:        uuid.MustParse("00000000-0000-0000-0000-00000000000a"),
		roomB:        uuid.MustParse("00000000-0000-0000-0000-00000000000b"),
		serviceID:    uuid.New(),
		customer:     shared.Actor{UserID: uuid.New(), Role: user.RoleCustomer},
		admin:        shared.Actor{UserID: uuid.New(), Role: user.RoleAdmin},
	}

	f.ledger = memstore.NewLedger(f.clock)

	st, err := studio.NewStudioType(studio.StudioTypeParams{
		ID:              f.studioTypeID,
		Name:            "Large studio",
		MinArea:         40,
		MaxArea:         80,
		OpenTime:        pricing.MustTimeOfDay("08:00"),
		ClosingBoundary: pricing.MustTimeOfDay("22:00"),
		LatestEndTime:   pricing.MustTimeOfDay("23:00"),
	})
	require.NoError(t, err)
	f.directory.AddStudioType(st)
	for _, r := range []struct {
		id   uuid.UUID
		name string
	}{{f.roomA, "Room A"}, {f.roomB, "Room B"}} {
		res, err := studio.NewResource(r.id, f.studioTypeID, f.locationID, r.name)
		require.NoError(t, err)
		f.directory.AddResource(res)
	}
	svc, err := studio.NewService(f.serviceID, "Lighting kit", 50000)
	require.NoError(t, err)
	f.directory.AddService(svc)

	f.catalogCmd = commands.NewCatalogCommands(f.catalog, f.clock, ict, f.logger)
	f.quoter = queries.NewPriceQuoter(f.catalog, f.directory, cache.NewMemoryPlanCache(time.Minute, f.clock), ict, f.logger)
	f.cmd = commands.NewBookingCommands(f.bookings, f.ledger, f.directory, f.quoter, f.clock, f.logger)
	return f
}

// withSaturdayPricing installs the catalog described on fixture.
func (f *fixture) withSaturdayPricing(t *testing.T) *fixture {
	t.Helper()
	table, err := f.catalogCmd.UpsertTable(f.ctx, pricing.PriceTableParams{
		ID:        uuid.New(),
		Name:      "Standard 2026",
		ValidFrom: pricing.NewDate(2026, time.January, 1),
		Priority:  1,
	})
	require.NoError(t, err)
	item, err := f.catalogCmd.UpsertItem(f.ctx, commands.UpsertItemCommand{
		ID:                  uuid.New(),
		PriceTableID:        table.ID(),
		StudioTypeID:        f.studioTypeID,
		DefaultPricePerUnit: 100000,
	})
	require.NoError(t, err)
	_, err = f.catalogCmd.UpsertRule(f.ctx, pricing.PriceRuleParams{
		ID:           uuid.New(),
		PriceItemID:  item.ID(),
		Weekdays:     pricing.NewWeekdaySet(time.Saturday),
		StartTime:    pricing.MustTimeOfDay("18:00"),
		EndTime:      pricing.MustTimeOfDay("22:00"),
		PricePerUnit: 150000,
		Unit:         pricing.UnitHour,
	})
	require.NoError(t, err)
	_, err = f.catalogCmd.UpsertRule(f.ctx, pricing.PriceRuleParams{
		ID:           uuid.New(),
		PriceItemID:  item.ID(),
		StartTime:    pricing.MustTimeOfDay("22:00"),
		EndTime:      pricing.MustTimeOfDay("23:00"),
		PricePerUnit: 3000,
		Unit:         pricing.UnitOvertimeMinute,
	})
	require.NoError(t, err)
	return f
}

// saturday returns hh:00 on Saturday 2026-10-17 in the business zone.
func saturday(hour int) time.Time {
	return time.Date(2026, time.October, 17, hour, 0, 0, 0, ict)
}

func (f *fixture) request(resourceID *uuid.UUID, startHour, endHour int) commands.CreateBookingCommand {
	return commands.CreateBookingCommand{
		RequestID:    uuid.New(),
		Actor:        f.customer,
		StudioTypeID: f.studioTypeID,
		LocationID:   f.locationID,
		Slots: []commands.SlotRequest{
			{Start: saturday(startHour), End: saturday(endHour), ResourceID: resourceID},
		},
		PhoneNumber: "+84 90 123 4567",
		Note:        "product shoot",
	}
}

func quoteRequest(cmd commands.CreateBookingCommand) queries.QuoteRequest {
	s := cmd.Slots[0]
	return queries.QuoteRequest{StudioTypeID: cmd.StudioTypeID, Start: s.Start, End: s.End, ServiceIDs: s.ServiceIDs}
}

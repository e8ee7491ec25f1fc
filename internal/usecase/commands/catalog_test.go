//go:build unit

package commands_test

import (
	"testing"
	"time"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCommands(t *testing.T) {
	t.Run("table status is derived from today", func(t *testing.T) {
		f := newFixture(t)
		to := pricing.NewDate(2026, time.March, 31)
		cases := []struct {
			name string
			from pricing.Date
			to   *pricing.Date
			want pricing.LifecycleStatus
		}{
			{"starts tomorrow", pricing.NewDate(2026, time.October, 17), nil, pricing.LifecycleUpcoming},
			{"started today", pricing.NewDate(2026, time.October, 16), nil, pricing.LifecycleActive},
			{"already over", pricing.NewDate(2026, time.January, 1), &to, pricing.LifecycleEnded},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				table, err := f.catalogCmd.UpsertTable(f.ctx, pricing.PriceTableParams{
					ID: uuid.New(), Name: tc.name, ValidFrom: tc.from, ValidTo: tc.to,
				})
				require.NoError(t, err)
				assert.Equal(t, tc.want, table.Status())
			})
		}
	})

	t.Run("items need a known table and are unique per studio type", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.catalogCmd.UpsertItem(f.ctx, commands.UpsertItemCommand{
			ID: uuid.New(), PriceTableID: uuid.New(), StudioTypeID: f.studioTypeID, DefaultPricePerUnit: 1,
		})
		require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)

		table, err := f.catalogCmd.UpsertTable(f.ctx, pricing.PriceTableParams{
			ID: uuid.New(), Name: "t", ValidFrom: pricing.NewDate(2026, time.January, 1),
		})
		require.NoError(t, err)
		first := commands.UpsertItemCommand{
			ID: uuid.New(), PriceTableID: table.ID(), StudioTypeID: f.studioTypeID, DefaultPricePerUnit: 1,
		}
		_, err = f.catalogCmd.UpsertItem(f.ctx, first)
		require.NoError(t, err)

		first.DefaultPricePerUnit = 2
		_, err = f.catalogCmd.UpsertItem(f.ctx, first)
		require.NoError(t, err, "updating the same item is allowed")

		second := first
		second.ID = uuid.New()
		_, err = f.catalogCmd.UpsertItem(f.ctx, second)
		require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)
	})

	t.Run("ambiguous rules are rejected", func(t *testing.T) {
		f := newFixture(t).withSaturdayPricing(t)
		tables, err := f.catalog.FindTablesCovering(f.ctx, f.studioTypeID, pricing.NewDate(2026, time.October, 17))
		require.NoError(t, err)
		require.Len(t, tables, 1)
		snap, err := f.catalog.Snapshot(f.ctx, f.studioTypeID, pricing.NewDate(2026, time.October, 17))
		require.NoError(t, err)
		itemID := snap.Candidates[0].Item.ID()

		rule := pricing.PriceRuleParams{
			ID:           uuid.New(),
			PriceItemID:  itemID,
			Weekdays:     pricing.NewWeekdaySet(time.Friday, time.Saturday),
			StartTime:    pricing.MustTimeOfDay("19:00"),
			EndTime:      pricing.MustTimeOfDay("23:00"),
			PricePerUnit: 120000,
			Unit:         pricing.UnitHour,
		}
		_, err = f.catalogCmd.UpsertRule(f.ctx, rule)
		require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry, "same width overlapping on Saturday")

		rule.StartTime = pricing.MustTimeOfDay("20:00")
		_, err = f.catalogCmd.UpsertRule(f.ctx, rule)
		require.NoError(t, err, "a narrower window is unambiguous")

		dated := pricing.NewDate(2026, time.October, 17)
		_, err = f.catalogCmd.UpsertRule(f.ctx, pricing.PriceRuleParams{
			ID:           uuid.New(),
			PriceItemID:  itemID,
			ExplicitDate: &dated,
			StartTime:    pricing.MustTimeOfDay("18:00"),
			EndTime:      pricing.MustTimeOfDay("22:00"),
			PricePerUnit: 90000,
			Unit:         pricing.UnitHour,
		})
		require.NoError(t, err, "a date-specific rule outranks weekday rules")
	})

	t.Run("rules need a known item", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.catalogCmd.UpsertRule(f.ctx, pricing.PriceRuleParams{
			ID: uuid.New(), PriceItemID: uuid.New(),
			StartTime: pricing.MustTimeOfDay("10:00"), EndTime: pricing.MustTimeOfDay("12:00"),
			PricePerUnit: 1, Unit: pricing.UnitHour,
		})
		require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)
	})

	t.Run("lifecycle advances with the clock and bumps the quote", func(t *testing.T) {
		f := newFixture(t).withSaturdayPricing(t)
		promo, err := f.catalogCmd.UpsertTable(f.ctx, pricing.PriceTableParams{
			ID: uuid.New(), Name: "promo", ValidFrom: pricing.NewDate(2026, time.October, 17), Priority: 10,
		})
		require.NoError(t, err)
		require.Equal(t, pricing.LifecycleUpcoming, promo.Status())
		_, err = f.catalogCmd.UpsertItem(f.ctx, commands.UpsertItemCommand{
			ID: uuid.New(), PriceTableID: promo.ID(), StudioTypeID: f.studioTypeID, DefaultPricePerUnit: 80000,
		})
		require.NoError(t, err)

		req := f.request(&f.roomA, 10, 12)
		before, err := f.quoter.Quote(f.ctx, quoteRequest(req))
		require.NoError(t, err)
		assert.Equal(t, int64(200000), before.Breakdown.Total.Amount())

		n, err := f.catalogCmd.AdvanceLifecycle(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		f.clock.Add(24 * time.Hour)
		n, err = f.catalogCmd.AdvanceLifecycle(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		after, err := f.quoter.Quote(f.ctx, quoteRequest(req))
		require.NoError(t, err)
		assert.Equal(t, int64(160000), after.Breakdown.Total.Amount())
		assert.Equal(t, promo.ID(), after.Plan.Table.ID())
	})
}

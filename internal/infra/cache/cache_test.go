//go:build unit

package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan(t *testing.T, version int64) *pricing.DayPlan {
	t.Helper()
	studioTypeID := uuid.New()
	date := pricing.NewDate(2026, time.October, 17)
	to := pricing.NewDate(2026, time.December, 31)
	table, err := pricing.NewPriceTable(pricing.PriceTableParams{
		ID: uuid.New(), Name: "autumn", ValidFrom: pricing.NewDate(2026, time.January, 1), ValidTo: &to,
		Priority: 2, Status: pricing.LifecycleActive,
	})
	require.NoError(t, err)
	item, err := pricing.NewPriceItem(uuid.New(), table.ID(), studioTypeID, 100000)
	require.NoError(t, err)
	rule, err := pricing.NewPriceRule(pricing.PriceRuleParams{
		ID: uuid.New(), PriceItemID: item.ID(), Weekdays: pricing.NewWeekdaySet(time.Saturday),
		StartTime: pricing.MustTimeOfDay("18:00"), EndTime: pricing.MustTimeOfDay("22:00"),
		PricePerUnit: 150000, Unit: pricing.UnitHour,
	})
	require.NoError(t, err)
	snap := pricing.CatalogSnapshot{
		Version:    version,
		Candidates: []pricing.Candidate{{Table: table, Item: item, Rules: []*pricing.PriceRule{rule}}},
	}
	plan, err := pricing.BuildDayPlan(snap, studioTypeID, date)
	require.NoError(t, err)
	return plan
}

func TestPlanDTO_PricesLikeTheOriginal(t *testing.T) {
	plan := samplePlan(t, 7)

	data, err := json.Marshal(planToDTO(plan))
	require.NoError(t, err)
	var dto planDTO
	require.NoError(t, json.Unmarshal(data, &dto))
	restored, err := planFromDTO(dto)
	require.NoError(t, err)

	w, err := pricing.NewTimeWindow(pricing.MustTimeOfDay("17:00"), pricing.MustTimeOfDay("21:00"))
	require.NoError(t, err)
	want, err := plan.Price(w, pricing.MustTimeOfDay("22:00"), nil)
	require.NoError(t, err)
	got, err := restored.Price(w, pricing.MustTimeOfDay("22:00"), nil)
	require.NoError(t, err)

	assert.Equal(t, want.Total, got.Total)
	assert.Equal(t, int64(550000), got.Total.Amount())
	assert.Equal(t, plan.CatalogVersion, restored.CatalogVersion)
	assert.Equal(t, plan.Table.ID(), restored.Table.ID())
}

func TestPlanDTO_RejectsCorruptedEntries(t *testing.T) {
	dto := planToDTO(samplePlan(t, 1))
	dto.Rules[0].PricePerUnit = -1

	_, err := planFromDTO(dto)
	require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)
}

func TestMemoryPlanCache(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC))
	c := NewMemoryPlanCache(time.Minute, clk)
	plan := samplePlan(t, 3)
	key := queries.PlanKey{StudioTypeID: plan.StudioTypeID, Date: plan.Date, Version: 3}

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, key, plan))
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Same(t, plan, got)

	t.Run("newer version evicts older entries", func(t *testing.T) {
		newer := key
		newer.Version = 4
		require.NoError(t, c.Set(ctx, newer, plan))
		got, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("entries expire", func(t *testing.T) {
		newer := key
		newer.Version = 4
		clk.Add(2 * time.Minute)
		got, err := c.Get(ctx, newer)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

//go:build unit

package pricing_test

import (
	"testing"
	"time"

	"studio-booking/internal/domain/pricing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceTable(t *testing.T) {
	from := pricing.NewDate(2026, time.March, 1)

	t.Run("validTo before validFrom", func(t *testing.T) {
		to := from.AddDays(-1)
		_, err := pricing.NewPriceTable(pricing.PriceTableParams{
			ID: uuid.New(), ValidFrom: from, ValidTo: &to, Status: pricing.LifecycleActive,
		})
		require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)
	})

	t.Run("single day table", func(t *testing.T) {
		to := from
		table, err := pricing.NewPriceTable(pricing.PriceTableParams{
			ID: uuid.New(), ValidFrom: from, ValidTo: &to, Status: pricing.LifecycleActive,
		})
		require.NoError(t, err)
		assert.True(t, table.Covers(from))
		assert.False(t, table.Covers(from.AddDays(1)))
		assert.False(t, table.Covers(from.AddDays(-1)))
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := pricing.NewPriceTable(pricing.PriceTableParams{ID: uuid.New(), ValidFrom: from})
		require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)
	})

	t.Run("lifecycle follows the calendar", func(t *testing.T) {
		to := from.AddDays(10)
		table, err := pricing.NewPriceTable(pricing.PriceTableParams{
			ID: uuid.New(), ValidFrom: from, ValidTo: &to, Status: pricing.LifecycleUpcoming,
		})
		require.NoError(t, err)

		assert.Equal(t, pricing.LifecycleUpcoming, table.LifecycleAt(from.AddDays(-1)))
		assert.Equal(t, pricing.LifecycleActive, table.LifecycleAt(from))
		assert.Equal(t, pricing.LifecycleActive, table.LifecycleAt(to))
		assert.Equal(t, pricing.LifecycleEnded, table.LifecycleAt(to.AddDays(1)))
	})
}

func TestPriceItem(t *testing.T) {
	_, err := pricing.NewPriceItem(uuid.New(), uuid.New(), uuid.New(), -1)
	require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)

	_, err = pricing.NewPriceItem(uuid.New(), uuid.Nil, uuid.New(), 10)
	require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)

	item, err := pricing.NewPriceItem(uuid.New(), uuid.New(), uuid.New(), 0)
	require.NoError(t, err)
	assert.Zero(t, item.DefaultPricePerUnit().Amount())
}

func TestPriceRule(t *testing.T) {
	base := pricing.PriceRuleParams{
		ID:           uuid.New(),
		PriceItemID:  uuid.New(),
		StartTime:    pricing.MustTimeOfDay("10:00"),
		EndTime:      pricing.MustTimeOfDay("12:00"),
		PricePerUnit: 1000,
		Unit:         pricing.UnitHour,
	}

	cases := []struct {
		name   string
		mutate func(*pricing.PriceRuleParams)
		errIs  error
	}{
		{name: "valid"},
		{
			name:   "start equals end",
			mutate: func(p *pricing.PriceRuleParams) { p.EndTime = p.StartTime },
			errIs:  pricing.ErrInvalidCatalogEntry,
		},
		{
			name:   "start after end",
			mutate: func(p *pricing.PriceRuleParams) { p.StartTime, p.EndTime = p.EndTime, p.StartTime },
			errIs:  pricing.ErrInvalidCatalogEntry,
		},
		{
			name:   "negative price",
			mutate: func(p *pricing.PriceRuleParams) { p.PricePerUnit = -5 },
			errIs:  pricing.ErrInvalidCatalogEntry,
		},
		{
			name:   "unknown unit",
			mutate: func(p *pricing.PriceRuleParams) { p.Unit = 0 },
			errIs:  pricing.ErrInvalidCatalogEntry,
		},
		{
			name:   "until midnight",
			mutate: func(p *pricing.PriceRuleParams) { p.EndTime = pricing.MustTimeOfDay("24:00") },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			if tc.mutate != nil {
				tc.mutate(&p)
			}
			_, err := pricing.NewPriceRule(p)
			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateRuleAgainst(t *testing.T) {
	itemID := uuid.New()
	date := pricing.NewDate(2026, time.December, 24)
	rule := func(p pricing.PriceRuleParams) *pricing.PriceRule {
		p.ID = uuid.New()
		p.PriceItemID = itemID
		if p.Unit == 0 {
			p.Unit = pricing.UnitHour
		}
		r, err := pricing.NewPriceRule(p)
		require.NoError(t, err)
		return r
	}
	weekend := pricing.NewWeekdaySet(time.Saturday, time.Sunday)
	existing := rule(pricing.PriceRuleParams{
		Weekdays:  weekend,
		StartTime: pricing.MustTimeOfDay("18:00"),
		EndTime:   pricing.MustTimeOfDay("22:00"),
	})

	cases := []struct {
		name      string
		candidate *pricing.PriceRule
		ambiguous bool
	}{
		{
			name: "same width overlapping on a shared weekday",
			candidate: rule(pricing.PriceRuleParams{
				Weekdays:  pricing.NewWeekdaySet(time.Sunday),
				StartTime: pricing.MustTimeOfDay("19:00"),
				EndTime:   pricing.MustTimeOfDay("23:00"),
			}),
			ambiguous: true,
		},
		{
			name: "empty weekday set means every day",
			candidate: rule(pricing.PriceRuleParams{
				StartTime: pricing.MustTimeOfDay("17:00"),
				EndTime:   pricing.MustTimeOfDay("21:00"),
			}),
			ambiguous: true,
		},
		{
			name: "narrower window is not ambiguous",
			candidate: rule(pricing.PriceRuleParams{
				Weekdays:  weekend,
				StartTime: pricing.MustTimeOfDay("19:00"),
				EndTime:   pricing.MustTimeOfDay("20:00"),
			}),
		},
		{
			name: "disjoint weekdays",
			candidate: rule(pricing.PriceRuleParams{
				Weekdays:  pricing.NewWeekdaySet(time.Monday),
				StartTime: pricing.MustTimeOfDay("18:00"),
				EndTime:   pricing.MustTimeOfDay("22:00"),
			}),
		},
		{
			name: "adjacent windows",
			candidate: rule(pricing.PriceRuleParams{
				Weekdays:  weekend,
				StartTime: pricing.MustTimeOfDay("14:00"),
				EndTime:   pricing.MustTimeOfDay("18:00"),
			}),
		},
		{
			name: "explicit date is more specific",
			candidate: rule(pricing.PriceRuleParams{
				ExplicitDate: &date,
				StartTime:    pricing.MustTimeOfDay("18:00"),
				EndTime:      pricing.MustTimeOfDay("22:00"),
			}),
		},
		{
			name: "overtime domain is separate",
			candidate: rule(pricing.PriceRuleParams{
				Weekdays:  weekend,
				StartTime: pricing.MustTimeOfDay("18:00"),
				EndTime:   pricing.MustTimeOfDay("22:00"),
				Unit:      pricing.UnitOvertimeMinute,
			}),
		},
		{
			name: "session competes with hour",
			candidate: rule(pricing.PriceRuleParams{
				Weekdays:  weekend,
				StartTime: pricing.MustTimeOfDay("18:00"),
				EndTime:   pricing.MustTimeOfDay("22:00"),
				Unit:      pricing.UnitSession,
			}),
			ambiguous: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := pricing.ValidateRuleAgainst(tc.candidate, []*pricing.PriceRule{existing})
			if tc.ambiguous {
				require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)
				return
			}
			require.NoError(t, err)
		})
	}

	t.Run("replacing a rule with itself", func(t *testing.T) {
		require.NoError(t, pricing.ValidateRuleAgainst(existing, []*pricing.PriceRule{existing}))
	})

	t.Run("two explicit rules on the same date", func(t *testing.T) {
		a := rule(pricing.PriceRuleParams{ExplicitDate: &date, StartTime: 0, EndTime: 120})
		b := rule(pricing.PriceRuleParams{ExplicitDate: &date, StartTime: 60, EndTime: 180})
		other := date.AddDays(1)
		c := rule(pricing.PriceRuleParams{ExplicitDate: &other, StartTime: 60, EndTime: 180})

		require.ErrorIs(t, pricing.ValidateRuleAgainst(b, []*pricing.PriceRule{a}), pricing.ErrInvalidCatalogEntry)
		require.NoError(t, pricing.ValidateRuleAgainst(c, []*pricing.PriceRule{a}))
	})
}

func TestValidateItemUnique(t *testing.T) {
	tableID, studioType := uuid.New(), uuid.New()
	first, err := pricing.NewPriceItem(uuid.New(), tableID, studioType, 100)
	require.NoError(t, err)
	second, err := pricing.NewPriceItem(uuid.New(), tableID, studioType, 200)
	require.NoError(t, err)
	other, err := pricing.NewPriceItem(uuid.New(), tableID, uuid.New(), 200)
	require.NoError(t, err)

	require.ErrorIs(t, pricing.ValidateItemUnique(second, []*pricing.PriceItem{first}), pricing.ErrInvalidCatalogEntry)
	require.NoError(t, pricing.ValidateItemUnique(other, []*pricing.PriceItem{first}))
	require.NoError(t, pricing.ValidateItemUnique(first, []*pricing.PriceItem{first}))
}

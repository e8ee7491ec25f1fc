//go:build unit

package pricing_test

import (
	"math"
	"testing"
	"time"

	"studio-booking/internal/domain/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	closing := pricing.MustTimeOfDay("22:00")

	t.Run("product examples", func(t *testing.T) {
		plan := saturdayPlan(t)

		inside, err := plan.Price(window(t, "19:00", "21:00"), closing, nil)
		require.NoError(t, err)
		spanning, err := plan.Price(window(t, "17:00", "19:00"), closing, nil)
		require.NoError(t, err)

		assert.Equal(t, int64(300000), inside.StudioPrice.Amount())
		assert.Equal(t, int64(300000), inside.Total.Amount())
		assert.Equal(t, int64(250000), spanning.StudioPrice.Amount())
		assert.Equal(t, int64(250000), spanning.Total.Amount())
	})

	t.Run("partial hour rounds up", func(t *testing.T) {
		plan := saturdayPlan(t)

		got, err := plan.Price(window(t, "10:00", "11:30"), closing, nil)

		require.NoError(t, err)
		assert.Equal(t, int64(200000), got.StudioPrice.Amount())
		require.Len(t, got.Contributions, 1)
		assert.Equal(t, int64(2), got.Contributions[0].Units)
	})

	t.Run("session is charged once", func(t *testing.T) {
		plan := saturdayPlan(t, func(item *pricing.PriceItem) *pricing.PriceRule {
			return mustRule(t, item, pricing.PriceRuleParams{
				StartTime:    pricing.MustTimeOfDay("09:00"),
				EndTime:      pricing.MustTimeOfDay("13:00"),
				PricePerUnit: 500000,
				Unit:         pricing.UnitSession,
			})
		})

		got, err := plan.Price(window(t, "10:00", "12:00"), closing, nil)

		require.NoError(t, err)
		assert.Equal(t, int64(500000), got.StudioPrice.Amount())
	})

	t.Run("service fees pass through", func(t *testing.T) {
		plan := saturdayPlan(t)

		got, err := plan.Price(window(t, "19:00", "21:00"), closing, []int64{30000, 20000})

		require.NoError(t, err)
		assert.Equal(t, int64(50000), got.ServicePrice.Amount())
		assert.Equal(t, int64(350000), got.Total.Amount())
	})

	t.Run("time past closing uses the overtime rule", func(t *testing.T) {
		plan := saturdayPlan(t, func(item *pricing.PriceItem) *pricing.PriceRule {
			return mustRule(t, item, pricing.PriceRuleParams{
				StartTime:    pricing.MustTimeOfDay("22:00"),
				EndTime:      pricing.MustTimeOfDay("24:00"),
				PricePerUnit: 2000,
				Unit:         pricing.UnitOvertimeMinute,
			})
		})

		got, err := plan.Price(window(t, "21:00", "23:30"), closing, []int64{10000})

		require.NoError(t, err)
		assert.Equal(t, int64(150000), got.StudioPrice.Amount())
		assert.Equal(t, int64(90*2000), got.OvertimeFee.Amount())
		assert.Equal(t, int64(10000), got.ServicePrice.Amount())
		assert.Equal(t, got.StudioPrice.Amount()+got.ServicePrice.Amount()+got.OvertimeFee.Amount(), got.Total.Amount())
	})

	t.Run("overtime without an overtime rule falls back to the default", func(t *testing.T) {
		plan := saturdayPlan(t)

		got, err := plan.Price(window(t, "22:00", "23:30"), closing, nil)

		require.NoError(t, err)
		assert.Zero(t, got.StudioPrice.Amount())
		assert.Equal(t, int64(200000), got.OvertimeFee.Amount())
	})

	t.Run("total equals the sum of its parts", func(t *testing.T) {
		plan := saturdayPlan(t)
		for start := 0; start < 20; start++ {
			w := pricing.TimeWindow{
				Start: pricing.TimeOfDay(start * 60),
				End:   pricing.TimeOfDay(start*60 + 150),
			}
			got, err := plan.Price(w, closing, []int64{1500})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got.Total.Amount(), int64(0))
			assert.Equal(t, got.StudioPrice.Amount()+got.ServicePrice.Amount()+got.OvertimeFee.Amount(), got.Total.Amount(), w.String())
		}
	})
}

func TestCompose(t *testing.T) {
	hour := func(price int64) pricing.PricedInterval {
		m, err := pricing.NewMoney(price)
		require.NoError(t, err)
		return pricing.PricedInterval{
			Window:       pricing.TimeWindow{Start: 600, End: 660},
			PricePerUnit: m,
			Unit:         pricing.UnitHour,
		}
	}

	t.Run("negative service fee is rejected", func(t *testing.T) {
		_, err := pricing.Compose(pricing.ComposeInput{
			Regular:     []pricing.PricedInterval{hour(100)},
			ServiceFees: []int64{-1},
		})

		require.ErrorIs(t, err, pricing.ErrNegativeAmount)
	})

	t.Run("overflow is rejected", func(t *testing.T) {
		_, err := pricing.Compose(pricing.ComposeInput{
			Regular: []pricing.PricedInterval{hour(math.MaxInt64), hour(1)},
		})

		require.ErrorIs(t, err, pricing.ErrAmountOverflow)
	})

	t.Run("nothing to price", func(t *testing.T) {
		got, err := pricing.Compose(pricing.ComposeInput{})

		require.NoError(t, err)
		assert.Zero(t, got.Total.Amount())
	})
}

func TestTimeWindow(t *testing.T) {
	_, err := pricing.NewTimeWindow(pricing.MustTimeOfDay("10:00"), pricing.MustTimeOfDay("10:00"))
	require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)

	_, err = pricing.ParseTimeOfDay("24:30")
	require.ErrorIs(t, err, pricing.ErrInvalidCatalogEntry)

	w := window(t, "09:00", "12:00")
	assert.Equal(t, 3*time.Hour, w.Duration())
	assert.True(t, w.Overlaps(window(t, "11:59", "13:00")))
	assert.False(t, w.Overlaps(window(t, "12:00", "13:00")))
}

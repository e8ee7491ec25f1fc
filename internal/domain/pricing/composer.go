package pricing

import (
	"studio-booking/internal/pkg/errs"
)

// Contribution is the charge of one priced interval.
type Contribution struct {
	Interval PricedInterval
	Units    int64
	Amount   Money
	Overtime bool
}

type Breakdown struct {
	StudioPrice   Money
	ServicePrice  Money
	OvertimeFee   Money
	Total         Money
	Contributions []Contribution
}

// ComposeInput carries resolver output split at the closing boundary and
// the service fees supplied by the service catalog.
type ComposeInput struct {
	Regular     []PricedInterval
	Overtime    []PricedInterval
	ServiceFees []int64
}

// unitsFor rounds partial units up. A SESSION covers its whole interval.
func unitsFor(pi PricedInterval) int64 {
	size := pi.Unit.sizeMinutes()
	if size == 0 {
		return 1
	}
	width := int64(pi.Window.Width())
	return (width + size - 1) / size
}

func contribute(pi PricedInterval, overtime bool) (Contribution, error) {
	units := unitsFor(pi)
	amount, err := pi.PricePerUnit.Times(units)
	if err != nil {
		return Contribution{}, errs.Wrapf(err, "pricing %s at %d per %s", pi.Window, pi.PricePerUnit.Amount(), pi.Unit)
	}
	return Contribution{Interval: pi, Units: units, Amount: amount, Overtime: overtime}, nil
}

func Compose(in ComposeInput) (Breakdown, error) {
	var b Breakdown
	for _, pi := range in.Regular {
		c, err := contribute(pi, false)
		if err != nil {
			return Breakdown{}, err
		}
		if b.StudioPrice, err = b.StudioPrice.Add(c.Amount); err != nil {
			return Breakdown{}, errs.Wrap(err, "summing studio price")
		}
		b.Contributions = append(b.Contributions, c)
	}
	for _, pi := range in.Overtime {
		c, err := contribute(pi, true)
		if err != nil {
			return Breakdown{}, err
		}
		if b.OvertimeFee, err = b.OvertimeFee.Add(c.Amount); err != nil {
			return Breakdown{}, errs.Wrap(err, "summing overtime fee")
		}
		b.Contributions = append(b.Contributions, c)
	}
	for _, fee := range in.ServiceFees {
		m, err := NewMoney(fee)
		if err != nil {
			return Breakdown{}, errs.Wrapf(err, "service fee %d", fee)
		}
		if b.ServicePrice, err = b.ServicePrice.Add(m); err != nil {
			return Breakdown{}, errs.Wrap(err, "summing service fees")
		}
	}

	total, err := b.StudioPrice.Add(b.ServicePrice)
	if err == nil {
		total, err = total.Add(b.OvertimeFee)
	}
	if err != nil {
		return Breakdown{}, errs.Wrap(err, "summing total")
	}
	b.Total = total
	return b, nil
}

// Price resolves w against the plan, splitting it at closingBoundary so the
// part past the boundary is charged as overtime, and composes the result.
func (p *DayPlan) Price(w TimeWindow, closingBoundary TimeOfDay, serviceFees []int64) (Breakdown, error) {
	regular := w.Clip(TimeWindow{Start: 0, End: closingBoundary})
	overtime := w.Clip(TimeWindow{Start: closingBoundary, End: MinutesPerDay})
	return Compose(ComposeInput{
		Regular:     p.Resolve(regular),
		Overtime:    p.ResolveOvertime(overtime),
		ServiceFees: serviceFees,
	})
}

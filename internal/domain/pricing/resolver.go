package pricing

import (
	"sort"

	"github.com/google/uuid"
)

// PricedInterval is a maximal run of the requested window priced by a single
// rule, or by the item default when RuleID is nil.
type PricedInterval struct {
	Window       TimeWindow
	PricePerUnit Money
	Unit         Unit
	RuleID       *uuid.UUID
}

func (p PricedInterval) sameSource(o PricedInterval) bool {
	if p.RuleID == nil || o.RuleID == nil {
		return p.RuleID == nil && o.RuleID == nil
	}
	return *p.RuleID == *o.RuleID
}

// Resolve prices w with HOUR and SESSION rules.
func (p *DayPlan) Resolve(w TimeWindow) []PricedInterval {
	return p.sweep(w, domainRegular)
}

// ResolveOvertime prices w with OVERTIME_MINUTE rules only. Points no
// overtime rule covers fall back to the item default per hour.
func (p *DayPlan) ResolveOvertime(w TimeWindow) []PricedInterval {
	return p.sweep(w, domainOvertime)
}

func (p *DayPlan) sweep(w TimeWindow, d unitDomain) []PricedInterval {
	if w.IsEmpty() {
		return nil
	}

	rules := make([]*PriceRule, 0, len(p.Rules))
	points := []TimeOfDay{w.Start, w.End}
	for _, r := range p.Rules {
		if domainOf(r.unit) != d || !r.window.Overlaps(w) {
			continue
		}
		rules = append(rules, r)
		if r.window.Start > w.Start {
			points = append(points, r.window.Start)
		}
		if r.window.End < w.End {
			points = append(points, r.window.End)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	var out []PricedInterval
	for i := 0; i+1 < len(points); i++ {
		seg := TimeWindow{Start: points[i], End: points[i+1]}
		if seg.IsEmpty() {
			continue
		}
		next := p.price(seg, winner(rules, seg))
		if n := len(out); n > 0 && out[n-1].sameSource(next) && out[n-1].Window.End == seg.Start {
			out[n-1].Window.End = seg.End
			continue
		}
		out = append(out, next)
	}
	return out
}

func winner(rules []*PriceRule, seg TimeWindow) *PriceRule {
	var best *PriceRule
	for _, r := range rules {
		if !r.window.Contains(seg) {
			continue
		}
		if best == nil || r.beats(best) {
			best = r
		}
	}
	return best
}

func (p *DayPlan) price(seg TimeWindow, r *PriceRule) PricedInterval {
	if r == nil {
		return PricedInterval{Window: seg, PricePerUnit: p.Item.DefaultPricePerUnit(), Unit: UnitHour}
	}
	id := r.id
	return PricedInterval{Window: seg, PricePerUnit: r.pricePerUnit, Unit: r.unit, RuleID: &id}
}

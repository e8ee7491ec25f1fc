package pricing

import (
	"sort"

	"studio-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// Candidate is one covering table together with its item for the
// requested studio type and every rule of that item.
type Candidate struct {
	Table *PriceTable
	Item  *PriceItem
	Rules []*PriceRule
}

// CatalogSnapshot is a consistent read of the catalog for one studio type
// and date.
type CatalogSnapshot struct {
	Version    int64
	Candidates []Candidate
}

// DayPlan holds everything the resolver needs for one studio type on one
// date. It is immutable once built and safe to share between goroutines.
type DayPlan struct {
	CatalogVersion int64
	StudioTypeID   uuid.UUID
	Date           Date
	Table          *PriceTable
	Item           *PriceItem
	Rules          []*PriceRule
}

// SelectTable picks the authoritative candidate. Candidates that are not
// active, do not cover date or lack an item for studioTypeID are ignored.
func SelectTable(candidates []Candidate, studioTypeID uuid.UUID, date Date) (Candidate, error) {
	var (
		best  Candidate
		found bool
	)
	for _, c := range candidates {
		if c.Table == nil || c.Item == nil {
			continue
		}
		if !c.Table.IsActive() || !c.Table.Covers(date) || c.Item.StudioTypeID() != studioTypeID {
			continue
		}
		if !found || c.Table.outranks(best.Table) {
			best, found = c, true
		}
	}
	if !found {
		return Candidate{}, errs.Wrapf(ErrNoPricingConfigured, "studio type %s on %s", studioTypeID, date)
	}
	return best, nil
}

// BuildDayPlan selects the authoritative table from snap and keeps only the
// rules in force on date.
func BuildDayPlan(snap CatalogSnapshot, studioTypeID uuid.UUID, date Date) (*DayPlan, error) {
	c, err := SelectTable(snap.Candidates, studioTypeID, date)
	if err != nil {
		return nil, err
	}
	rules := make([]*PriceRule, 0, len(c.Rules))
	for _, r := range c.Rules {
		if r.PriceItemID() == c.Item.ID() && r.AppliesOn(date) {
			rules = append(rules, r)
		}
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].window.Start != rules[j].window.Start {
			return rules[i].window.Start < rules[j].window.Start
		}
		return rules[i].id.String() < rules[j].id.String()
	})
	return &DayPlan{
		CatalogVersion: snap.Version,
		StudioTypeID:   studioTypeID,
		Date:           date,
		Table:          c.Table,
		Item:           c.Item,
		Rules:          rules,
	}, nil
}

// RankTables sorts tables from most to least authoritative.
func RankTables(tables []*PriceTable) {
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].outranks(tables[j])
	})
}

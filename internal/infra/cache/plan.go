package cache

import (
	"studio-booking/internal/domain/pricing"

	"github.com/google/uuid"
)

type tableDTO struct {
	ID        uuid.UUID               `json:"id"`
	Name      string                  `json:"name"`
	ValidFrom pricing.Date            `json:"validFrom"`
	ValidTo   *pricing.Date           `json:"validTo,omitempty"`
	Priority  int                     `json:"priority"`
	Status    pricing.LifecycleStatus `json:"status"`
}

type itemDTO struct {
	ID                  uuid.UUID `json:"id"`
	PriceTableID        uuid.UUID `json:"priceTableId"`
	StudioTypeID        uuid.UUID `json:"studioTypeId"`
	DefaultPricePerUnit int64     `json:"defaultPricePerUnit"`
}

type ruleDTO struct {
	ID           uuid.UUID         `json:"id"`
	Weekdays     []string          `json:"weekdays,omitempty"`
	ExplicitDate *pricing.Date     `json:"explicitDate,omitempty"`
	StartTime    pricing.TimeOfDay `json:"startTime"`
	EndTime      pricing.TimeOfDay `json:"endTime"`
	PricePerUnit int64             `json:"pricePerUnit"`
	Unit         pricing.Unit      `json:"unit"`
}

type planDTO struct {
	CatalogVersion int64        `json:"catalogVersion"`
	StudioTypeID   uuid.UUID    `json:"studioTypeId"`
	Date           pricing.Date `json:"date"`
	Table          tableDTO     `json:"table"`
	Item           itemDTO      `json:"item"`
	Rules          []ruleDTO    `json:"rules"`
}

func planToDTO(p *pricing.DayPlan) planDTO {
	rules := make([]ruleDTO, len(p.Rules))
	for i, r := range p.Rules {
		rules[i] = ruleDTO{
			ID:           r.ID(),
			Weekdays:     r.Weekdays().Names(),
			ExplicitDate: r.ExplicitDate(),
			StartTime:    r.Window().Start,
			EndTime:      r.Window().End,
			PricePerUnit: r.PricePerUnit().Amount(),
			Unit:         r.Unit(),
		}
	}
	return planDTO{
		CatalogVersion: p.CatalogVersion,
		StudioTypeID:   p.StudioTypeID,
		Date:           p.Date,
		Table: tableDTO{
			ID:        p.Table.ID(),
			Name:      p.Table.Name(),
			ValidFrom: p.Table.ValidFrom(),
			ValidTo:   p.Table.ValidTo(),
			Priority:  p.Table.Priority(),
			Status:    p.Table.Status(),
		},
		Item: itemDTO{
			ID:                  p.Item.ID(),
			PriceTableID:        p.Item.PriceTableID(),
			StudioTypeID:        p.Item.StudioTypeID(),
			DefaultPricePerUnit: p.Item.DefaultPricePerUnit().Amount(),
		},
		Rules: rules,
	}
}

// planFromDTO rebuilds the plan through the domain constructors, so a
// corrupted entry surfaces as an error instead of a wrong price.
func planFromDTO(d planDTO) (*pricing.DayPlan, error) {
	table, err := pricing.NewPriceTable(pricing.PriceTableParams{
		ID:        d.Table.ID,
		Name:      d.Table.Name,
		ValidFrom: d.Table.ValidFrom,
		ValidTo:   d.Table.ValidTo,
		Priority:  d.Table.Priority,
		Status:    d.Table.Status,
	})
	if err != nil {
		return nil, err
	}
	item, err := pricing.NewPriceItem(d.Item.ID, d.Item.PriceTableID, d.Item.StudioTypeID, d.Item.DefaultPricePerUnit)
	if err != nil {
		return nil, err
	}
	rules := make([]*pricing.PriceRule, len(d.Rules))
	for i, r := range d.Rules {
		weekdays, err := pricing.ParseWeekdaySet(r.Weekdays)
		if err != nil {
			return nil, err
		}
		rule, err := pricing.NewPriceRule(pricing.PriceRuleParams{
			ID:           r.ID,
			PriceItemID:  item.ID(),
			Weekdays:     weekdays,
			ExplicitDate: r.ExplicitDate,
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			PricePerUnit: r.PricePerUnit,
			Unit:         r.Unit,
		})
		if err != nil {
			return nil, err
		}
		rules[i] = rule
	}
	return &pricing.DayPlan{
		CatalogVersion: d.CatalogVersion,
		StudioTypeID:   d.StudioTypeID,
		Date:           d.Date,
		Table:          table,
		Item:           item,
		Rules:          rules,
	}, nil
}

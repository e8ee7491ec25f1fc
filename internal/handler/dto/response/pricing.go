package response

import (
	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type QuoteResponse struct {
	StudioTypeID uuid.UUID `json:"studioTypeId"`
	booking.PriceLine
}

func FromQuote(q *queries.Quote) *QuoteResponse {
	line := booking.NewPriceLine(uuid.Nil, q.Plan, q.Window, q.Breakdown)
	return &QuoteResponse{StudioTypeID: q.StudioType.ID(), PriceLine: line}
}

type PriceTableResponse struct {
	ID        uuid.UUID               `json:"id"`
	Name      string                  `json:"name"`
	ValidFrom pricing.Date            `json:"validFrom"`
	ValidTo   *pricing.Date           `json:"validTo,omitempty"`
	Priority  int                     `json:"priority"`
	Status    pricing.LifecycleStatus `json:"status"`
}

type PriceItemResponse struct {
	ID                  uuid.UUID `json:"id"`
	PriceTableID        uuid.UUID `json:"priceTableId"`
	StudioTypeID        uuid.UUID `json:"studioTypeId"`
	DefaultPricePerUnit int64     `json:"defaultPricePerUnit"`
}

type PriceRuleResponse struct {
	ID           uuid.UUID     `json:"id"`
	PriceItemID  uuid.UUID     `json:"priceItemId"`
	Weekdays     []string      `json:"weekdays"`
	ExplicitDate *pricing.Date `json:"explicitDate,omitempty"`
	StartTime    string        `json:"startTime"`
	EndTime      string        `json:"endTime"`
	PricePerUnit int64         `json:"pricePerUnit"`
	Unit         pricing.Unit  `json:"unit"`
}

// Entity getters share their names with the response fields, so copier
// fills the scalar fields straight from the methods.

func FromPriceTable(t *pricing.PriceTable) (*PriceTableResponse, error) {
	var out PriceTableResponse
	if err := copier.Copy(&out, t); err != nil {
		return nil, err
	}
	return &out, nil
}

func FromPriceTables(ts []*pricing.PriceTable) ([]*PriceTableResponse, error) {
	out := make([]*PriceTableResponse, len(ts))
	for i, t := range ts {
		r, err := FromPriceTable(t)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func FromPriceItem(item *pricing.PriceItem) (*PriceItemResponse, error) {
	var out PriceItemResponse
	if err := copier.Copy(&out, item); err != nil {
		return nil, err
	}
	out.DefaultPricePerUnit = item.DefaultPricePerUnit().Amount()
	return &out, nil
}

func FromPriceRule(r *pricing.PriceRule) (*PriceRuleResponse, error) {
	var out PriceRuleResponse
	if err := copier.Copy(&out, r); err != nil {
		return nil, err
	}
	out.Weekdays = r.Weekdays().Names()
	if out.Weekdays == nil {
		out.Weekdays = []string{}
	}
	out.StartTime = r.Window().Start.String()
	out.EndTime = r.Window().End.String()
	out.PricePerUnit = r.PricePerUnit().Amount()
	return &out, nil
}

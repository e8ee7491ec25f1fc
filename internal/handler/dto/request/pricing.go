package request

import (
	"time"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type QuoteRequest struct {
	StudioTypeID uuid.UUID   `json:"studioTypeId" binding:"required"`
	StartTime    time.Time   `json:"startTime" binding:"required"`
	EndTime      time.Time   `json:"endTime" binding:"required"`
	ServiceIDs   []uuid.UUID `json:"serviceIds" binding:"omitempty,max=20,dive,required"`
}

func (r QuoteRequest) ToQuery() queries.QuoteRequest {
	return queries.QuoteRequest{
		StudioTypeID: r.StudioTypeID,
		Start:        r.StartTime,
		End:          r.EndTime,
		ServiceIDs:   r.ServiceIDs,
	}
}

type PutPriceTableRequest struct {
	Name      string  `json:"name" binding:"required,max=255"`
	ValidFrom string  `json:"validFrom" binding:"required,isodate"`
	ValidTo   *string `json:"validTo,omitempty" binding:"omitempty,isodate"`
	Priority  int     `json:"priority" binding:"min=0,max=10000"`
}

// ToParams leaves Status unset so the lifecycle is derived from today.
func (r PutPriceTableRequest) ToParams(id uuid.UUID) (pricing.PriceTableParams, error) {
	from, err := pricing.ParseDate(r.ValidFrom)
	if err != nil {
		return pricing.PriceTableParams{}, err
	}
	to, err := parseOptionalDate(r.ValidTo)
	if err != nil {
		return pricing.PriceTableParams{}, err
	}
	return pricing.PriceTableParams{
		ID:        id,
		Name:      r.Name,
		ValidFrom: from,
		ValidTo:   to,
		Priority:  r.Priority,
	}, nil
}

type PutPriceItemRequest struct {
	PriceTableID        uuid.UUID `json:"priceTableId" binding:"required"`
	StudioTypeID        uuid.UUID `json:"studioTypeId" binding:"required"`
	DefaultPricePerUnit int64     `json:"defaultPricePerUnit" binding:"min=0"`
}

func (r PutPriceItemRequest) ToCommand(id uuid.UUID) commands.UpsertItemCommand {
	return commands.UpsertItemCommand{
		ID:                  id,
		PriceTableID:        r.PriceTableID,
		StudioTypeID:        r.StudioTypeID,
		DefaultPricePerUnit: r.DefaultPricePerUnit,
	}
}

type PutPriceRuleRequest struct {
	PriceItemID  uuid.UUID `json:"priceItemId" binding:"required"`
	Weekdays     []string  `json:"weekdays" binding:"omitempty,max=7,dive,weekday"`
	ExplicitDate *string   `json:"explicitDate,omitempty" binding:"omitempty,isodate"`
	StartTime    string    `json:"startTime" binding:"required,hhmm"`
	EndTime      string    `json:"endTime" binding:"required,hhmm"`
	PricePerUnit int64     `json:"pricePerUnit" binding:"min=0"`
	Unit         string    `json:"unit" binding:"required,oneof=HOUR SESSION OVERTIME_MINUTE"`
}

func (r PutPriceRuleRequest) ToParams(id uuid.UUID) (pricing.PriceRuleParams, error) {
	weekdays, err := pricing.ParseWeekdaySet(r.Weekdays)
	if err != nil {
		return pricing.PriceRuleParams{}, err
	}
	date, err := parseOptionalDate(r.ExplicitDate)
	if err != nil {
		return pricing.PriceRuleParams{}, err
	}
	start, err := pricing.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return pricing.PriceRuleParams{}, err
	}
	end, err := pricing.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return pricing.PriceRuleParams{}, err
	}
	unit, err := pricing.ParseUnit(r.Unit)
	if err != nil {
		return pricing.PriceRuleParams{}, err
	}
	return pricing.PriceRuleParams{
		ID:           id,
		PriceItemID:  r.PriceItemID,
		Weekdays:     weekdays,
		ExplicitDate: date,
		StartTime:    start,
		EndTime:      end,
		PricePerUnit: r.PricePerUnit,
		Unit:         unit,
	}, nil
}

type ListPriceTablesQuery struct {
	StudioTypeID string `form:"studioTypeId" binding:"required,uuid"`
	Date         string `form:"date" binding:"required,isodate"`
}

func parseOptionalDate(s *string) (*pricing.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := pricing.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

package pricing

import (
	"studio-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

type PriceTable struct {
	id        uuid.UUID
	name      string
	validFrom Date
	validTo   *Date
	priority  int
	status    LifecycleStatus
}

type PriceTableParams struct {
	ID        uuid.UUID
	Name      string
	ValidFrom Date
	ValidTo   *Date
	Priority  int
	Status    LifecycleStatus
}

func NewPriceTable(p PriceTableParams) (*PriceTable, error) {
	if p.ID == uuid.Nil {
		return nil, errs.Wrap(ErrInvalidCatalogEntry, "price table id is required")
	}
	if p.ValidFrom.IsZero() {
		return nil, errs.Wrap(ErrInvalidCatalogEntry, "price table validFrom is required")
	}
	if p.ValidTo != nil && p.ValidTo.Before(p.ValidFrom) {
		return nil, errs.Wrapf(ErrInvalidCatalogEntry, "price table validTo %s precedes validFrom %s", p.ValidTo, p.ValidFrom)
	}
	if !p.Status.IsValid() {
		return nil, errs.Wrapf(ErrInvalidCatalogEntry, "price table has unknown status %d", int(p.Status))
	}
	t := &PriceTable{
		id:        p.ID,
		name:      p.Name,
		validFrom: p.ValidFrom,
		priority:  p.Priority,
		status:    p.Status,
	}
	if p.ValidTo != nil {
		to := *p.ValidTo
		t.validTo = &to
	}
	return t, nil
}

func (t *PriceTable) ID() uuid.UUID           { return t.id }
func (t *PriceTable) Name() string            { return t.name }
func (t *PriceTable) ValidFrom() Date         { return t.validFrom }
func (t *PriceTable) ValidTo() *Date          { return t.validTo }
func (t *PriceTable) Priority() int           { return t.priority }
func (t *PriceTable) Status() LifecycleStatus { return t.status }

// Covers reports whether d lies inside [validFrom, validTo].
func (t *PriceTable) Covers(d Date) bool {
	if d.Before(t.validFrom) {
		return false
	}
	return t.validTo == nil || !d.After(*t.validTo)
}

func (t *PriceTable) IsActive() bool {
	return t.status == LifecycleActive
}

// LifecycleAt derives the status a table should have on the given day.
func (t *PriceTable) LifecycleAt(today Date) LifecycleStatus {
	switch {
	case today.Before(t.validFrom):
		return LifecycleUpcoming
	case t.validTo != nil && today.After(*t.validTo):
		return LifecycleEnded
	default:
		return LifecycleActive
	}
}

// Advance moves the status forward to match today. Transitions never go
// backwards, so a table ended early stays ended.
func (t *PriceTable) Advance(today Date) (*PriceTable, bool) {
	target := t.LifecycleAt(today)
	if target <= t.status {
		return t, false
	}
	return t.WithStatus(target), true
}

// WithStatus returns a copy carrying status s.
func (t *PriceTable) WithStatus(s LifecycleStatus) *PriceTable {
	c := *t
	c.status = s
	return &c
}

// outranks orders tables by priority, then the later validFrom, then id.
func (t *PriceTable) outranks(o *PriceTable) bool {
	if t.priority != o.priority {
		return t.priority > o.priority
	}
	if c := t.validFrom.Compare(o.validFrom); c != 0 {
		return c > 0
	}
	return t.id.String() < o.id.String()
}

type PriceItem struct {
	id                  uuid.UUID
	priceTableID        uuid.UUID
	studioTypeID        uuid.UUID
	defaultPricePerUnit Money
}

func NewPriceItem(id, priceTableID, studioTypeID uuid.UUID, defaultPricePerUnit int64) (*PriceItem, error) {
	if id == uuid.Nil || priceTableID == uuid.Nil || studioTypeID == uuid.Nil {
		return nil, errs.Wrap(ErrInvalidCatalogEntry, "price item requires id, price table and studio type")
	}
	price, err := NewMoney(defaultPricePerUnit)
	if err != nil {
		return nil, errs.Wrapf(ErrInvalidCatalogEntry, "price item default price %d is negative", defaultPricePerUnit)
	}
	return &PriceItem{
		id:                  id,
		priceTableID:        priceTableID,
		studioTypeID:        studioTypeID,
		defaultPricePerUnit: price,
	}, nil
}

func (i *PriceItem) ID() uuid.UUID              { return i.id }
func (i *PriceItem) PriceTableID() uuid.UUID    { return i.priceTableID }
func (i *PriceItem) StudioTypeID() uuid.UUID    { return i.studioTypeID }
func (i *PriceItem) DefaultPricePerUnit() Money { return i.defaultPricePerUnit }

type PriceRule struct {
	id           uuid.UUID
	priceItemID  uuid.UUID
	weekdays     WeekdaySet
	explicitDate *Date
	window       TimeWindow
	pricePerUnit Money
	unit         Unit
}

type PriceRuleParams struct {
	ID           uuid.UUID
	PriceItemID  uuid.UUID
	Weekdays     WeekdaySet
	ExplicitDate *Date
	StartTime    TimeOfDay
	EndTime      TimeOfDay
	PricePerUnit int64
	Unit         Unit
}

func NewPriceRule(p PriceRuleParams) (*PriceRule, error) {
	if p.ID == uuid.Nil || p.PriceItemID == uuid.Nil {
		return nil, errs.Wrap(ErrInvalidCatalogEntry, "price rule requires id and price item")
	}
	window, err := NewTimeWindow(p.StartTime, p.EndTime)
	if err != nil {
		return nil, err
	}
	price, err := NewMoney(p.PricePerUnit)
	if err != nil {
		return nil, errs.Wrapf(ErrInvalidCatalogEntry, "price rule price %d is negative", p.PricePerUnit)
	}
	if !p.Unit.IsValid() {
		return nil, errs.Wrapf(ErrInvalidCatalogEntry, "price rule has unknown unit %d", int(p.Unit))
	}
	r := &PriceRule{
		id:           p.ID,
		priceItemID:  p.PriceItemID,
		weekdays:     p.Weekdays,
		window:       window,
		pricePerUnit: price,
		unit:         p.Unit,
	}
	if p.ExplicitDate != nil {
		d := *p.ExplicitDate
		r.explicitDate = &d
	}
	return r, nil
}

func (r *PriceRule) ID() uuid.UUID          { return r.id }
func (r *PriceRule) PriceItemID() uuid.UUID { return r.priceItemID }
func (r *PriceRule) Weekdays() WeekdaySet   { return r.weekdays }
func (r *PriceRule) ExplicitDate() *Date    { return r.explicitDate }
func (r *PriceRule) Window() TimeWindow     { return r.window }
func (r *PriceRule) PricePerUnit() Money    { return r.pricePerUnit }
func (r *PriceRule) Unit() Unit             { return r.unit }

// AppliesOn reports whether the rule is in force on d. An explicit date
// overrides the weekday filter.
func (r *PriceRule) AppliesOn(d Date) bool {
	if r.explicitDate != nil {
		return r.explicitDate.Equal(d)
	}
	return r.weekdays.Contains(d.Weekday())
}

func (r *PriceRule) isDateSpecific() bool {
	return r.explicitDate != nil
}

// beats reports whether r wins over o for a point both contain:
// explicit date first, then the narrowest window, then id.
func (r *PriceRule) beats(o *PriceRule) bool {
	if r.isDateSpecific() != o.isDateSpecific() {
		return r.isDateSpecific()
	}
	if r.window.Width() != o.window.Width() {
		return r.window.Width() < o.window.Width()
	}
	return r.id.String() < o.id.String()
}

// ConflictsWith reports whether r and o could tie during resolution.
func (r *PriceRule) ConflictsWith(o *PriceRule) bool {
	if r.id == o.id || r.priceItemID != o.priceItemID {
		return false
	}
	if domainOf(r.unit) != domainOf(o.unit) {
		return false
	}
	if r.isDateSpecific() != o.isDateSpecific() {
		return false
	}
	if r.isDateSpecific() {
		if !r.explicitDate.Equal(*o.explicitDate) {
			return false
		}
	} else if !r.weekdays.Intersects(o.weekdays) {
		return false
	}
	return r.window.Width() == o.window.Width() && r.window.Overlaps(o.window)
}

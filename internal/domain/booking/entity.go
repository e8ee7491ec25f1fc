package booking

import (
	"strings"
	"time"

	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrNoSlots         = errs.New("booking needs at least one slot")
	ErrInvalidStatus   = errs.New("invalid booking status")
	ErrNotFound        = errs.New("booking not found")
	ErrForbidden       = errs.New("booking belongs to another user")
	ErrNoteTooLong     = errs.New("note is too long")
	ErrInvalidContacts = errs.New("phone number is required")
)

const MaxNoteLength = 1000

// Slot is one reserved resource interval of a booking.
type Slot struct {
	ResourceID uuid.UUID
	Interval   ledger.Interval
	ServiceIDs []uuid.UUID
}

type Booking struct {
	id           uuid.UUID
	requestID    uuid.UUID
	requestHash  string
	userID       uuid.UUID
	studioTypeID uuid.UUID
	locationID   uuid.UUID
	phoneNumber  string
	note         string
	paymentInfo  string
	status       Status
	slots        []Slot
	snapshot     PriceSnapshot
	createdAt    time.Time
	updatedAt    time.Time
}

type NewBookingParams struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	RequestHash  string
	UserID       uuid.UUID
	StudioTypeID uuid.UUID
	LocationID   uuid.UUID
	PhoneNumber  string
	Note         string
	PaymentInfo  string
	Slots        []Slot
	Lines        []PriceLine
	Now          time.Time
}

// NewBooking builds a confirmed booking whose price snapshot is frozen from
// the given lines.
func NewBooking(p NewBookingParams) (*Booking, error) {
	if len(p.Slots) == 0 || len(p.Slots) != len(p.Lines) {
		return nil, ErrNoSlots
	}
	if err := ValidateContact(p.PhoneNumber, p.Note); err != nil {
		return nil, err
	}
	snapshot, err := NewPriceSnapshot(p.Lines)
	if err != nil {
		return nil, err
	}
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := p.Now.UTC()
	return &Booking{
		id:           id,
		requestID:    p.RequestID,
		requestHash:  p.RequestHash,
		userID:       p.UserID,
		studioTypeID: p.StudioTypeID,
		locationID:   p.LocationID,
		phoneNumber:  strings.TrimSpace(p.PhoneNumber),
		note:         p.Note,
		paymentInfo:  p.PaymentInfo,
		status:       StatusConfirmed,
		slots:        append([]Slot(nil), p.Slots...),
		snapshot:     snapshot,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

type ReconstructParams struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	RequestHash  string
	UserID       uuid.UUID
	StudioTypeID uuid.UUID
	LocationID   uuid.UUID
	PhoneNumber  string
	Note         string
	PaymentInfo  string
	Status       Status
	Slots        []Slot
	Snapshot     PriceSnapshot
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func ReconstructBooking(p ReconstructParams) *Booking {
	return &Booking{
		id:           p.ID,
		requestID:    p.RequestID,
		requestHash:  p.RequestHash,
		userID:       p.UserID,
		studioTypeID: p.StudioTypeID,
		locationID:   p.LocationID,
		phoneNumber:  p.PhoneNumber,
		note:         p.Note,
		paymentInfo:  p.PaymentInfo,
		status:       p.Status,
		slots:        p.Slots,
		snapshot:     p.Snapshot,
		createdAt:    p.CreatedAt,
		updatedAt:    p.UpdatedAt,
	}
}

func (b *Booking) ID() uuid.UUID           { return b.id }
func (b *Booking) RequestID() uuid.UUID    { return b.requestID }
func (b *Booking) RequestHash() string     { return b.requestHash }
func (b *Booking) UserID() uuid.UUID       { return b.userID }
func (b *Booking) StudioTypeID() uuid.UUID { return b.studioTypeID }
func (b *Booking) LocationID() uuid.UUID   { return b.locationID }
func (b *Booking) PhoneNumber() string     { return b.phoneNumber }
func (b *Booking) Note() string            { return b.note }
func (b *Booking) PaymentInfo() string     { return b.paymentInfo }
func (b *Booking) Status() Status          { return b.status }
func (b *Booking) Slots() []Slot           { return b.slots }
func (b *Booking) Snapshot() PriceSnapshot { return b.snapshot }
func (b *Booking) CreatedAt() time.Time    { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time    { return b.updatedAt }

// ValidateContact checks the customer fields before any slot is reserved.
func ValidateContact(phoneNumber, note string) error {
	if strings.TrimSpace(phoneNumber) == "" {
		return ErrInvalidContacts
	}
	if len(note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

func (b *Booking) IsCanceled() bool {
	return b.status == StatusCanceled
}

// CanBeCanceledBy reports whether actor may cancel the booking.
func (b *Booking) CanBeCanceledBy(actor uuid.UUID, isAdmin bool) bool {
	return isAdmin || b.userID == actor
}

// Cancel marks the booking canceled. It reports false when it already was.
func (b *Booking) Cancel(now time.Time) bool {
	if b.status == StatusCanceled {
		return false
	}
	b.status = StatusCanceled
	b.updatedAt = now.UTC()
	return true
}

// ReservedSlots returns the ledger entries this booking holds.
func (b *Booking) ReservedSlots() []ledger.ReservedSlot {
	out := make([]ledger.ReservedSlot, len(b.slots))
	for i, s := range b.slots {
		out[i] = ledger.NewReservedSlot(s.ResourceID, s.Interval, b.id)
	}
	return out
}

// PriceSnapshot is the immutable price record stored with a booking.
type PriceSnapshot struct {
	StudioPrice  int64       `json:"studioPrice"`
	ServicePrice int64       `json:"servicePrice"`
	OvertimeFee  int64       `json:"overtimeFee"`
	Total        int64       `json:"total"`
	Lines        []PriceLine `json:"lines"`
}

// PriceLine is the price of one slot.
type PriceLine struct {
	ResourceID     uuid.UUID      `json:"resourceId"`
	Date           pricing.Date   `json:"date"`
	Start          string         `json:"start"`
	End            string         `json:"end"`
	PriceTableID   uuid.UUID      `json:"priceTableId"`
	CatalogVersion int64          `json:"catalogVersion"`
	StudioPrice    int64          `json:"studioPrice"`
	ServicePrice   int64          `json:"servicePrice"`
	OvertimeFee    int64          `json:"overtimeFee"`
	Total          int64          `json:"total"`
	Charges        []ChargeDetail `json:"charges"`
}

type ChargeDetail struct {
	Start        string     `json:"start"`
	End          string     `json:"end"`
	PricePerUnit int64      `json:"pricePerUnit"`
	Unit         string     `json:"unit"`
	Units        int64      `json:"units"`
	Amount       int64      `json:"amount"`
	Overtime     bool       `json:"overtime"`
	RuleID       *uuid.UUID `json:"ruleId,omitempty"`
}

// NewPriceLine freezes a breakdown computed from plan.
func NewPriceLine(resourceID uuid.UUID, plan *pricing.DayPlan, w pricing.TimeWindow, b pricing.Breakdown) PriceLine {
	charges := make([]ChargeDetail, len(b.Contributions))
	for i, c := range b.Contributions {
		charges[i] = ChargeDetail{
			Start:        c.Interval.Window.Start.String(),
			End:          c.Interval.Window.End.String(),
			PricePerUnit: c.Interval.PricePerUnit.Amount(),
			Unit:         c.Interval.Unit.String(),
			Units:        c.Units,
			Amount:       c.Amount.Amount(),
			Overtime:     c.Overtime,
			RuleID:       c.Interval.RuleID,
		}
	}
	return PriceLine{
		ResourceID:     resourceID,
		Date:           plan.Date,
		Start:          w.Start.String(),
		End:            w.End.String(),
		PriceTableID:   plan.Table.ID(),
		CatalogVersion: plan.CatalogVersion,
		StudioPrice:    b.StudioPrice.Amount(),
		ServicePrice:   b.ServicePrice.Amount(),
		OvertimeFee:    b.OvertimeFee.Amount(),
		Total:          b.Total.Amount(),
		Charges:        charges,
	}
}

// NewPriceSnapshot sums the lines, rejecting overflow.
func NewPriceSnapshot(lines []PriceLine) (PriceSnapshot, error) {
	var studioPrice, servicePrice, overtimeFee, total pricing.Money
	add := func(acc *pricing.Money, v int64) error {
		m, err := pricing.NewMoney(v)
		if err != nil {
			return err
		}
		sum, err := acc.Add(m)
		if err != nil {
			return err
		}
		*acc = sum
		return nil
	}
	for _, l := range lines {
		for _, step := range []struct {
			acc *pricing.Money
			v   int64
		}{
			{&studioPrice, l.StudioPrice},
			{&servicePrice, l.ServicePrice},
			{&overtimeFee, l.OvertimeFee},
			{&total, l.Total},
		} {
			if err := add(step.acc, step.v); err != nil {
				return PriceSnapshot{}, errs.Wrap(err, "summing booking price")
			}
		}
	}
	return PriceSnapshot{
		StudioPrice:  studioPrice.Amount(),
		ServicePrice: servicePrice.Amount(),
		OvertimeFee:  overtimeFee.Amount(),
		Total:        total.Amount(),
		Lines:        append([]PriceLine(nil), lines...),
	}, nil
}

package ledger

import (
	"fmt"
	"time"

	"studio-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrSlotConflict    = errs.New("slot no longer available")
	ErrInvalidInterval = errs.New("interval start must be before end")
)

// Interval is the half-open range [start, end) of instants.
type Interval struct {
	start time.Time
	end   time.Time
}

func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, errs.Wrapf(ErrInvalidInterval, "%s >= %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{start: start.UTC(), end: end.UTC()}, nil
}

func (i Interval) Start() time.Time { return i.start }
func (i Interval) End() time.Time   { return i.end }

func (i Interval) Duration() time.Duration {
	return i.end.Sub(i.start)
}

func (i Interval) Equal(o Interval) bool {
	return i.start.Equal(o.start) && i.end.Equal(o.end)
}

func (i Interval) Overlaps(o Interval) bool {
	return i.start.Before(o.end) && o.start.Before(i.end)
}

func (i Interval) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", i.start.Format(time.RFC3339), i.end.Format(time.RFC3339))
}

func (i Interval) String() string {
	return i.ToTstzrange()
}

type ReservedSlot struct {
	resourceID uuid.UUID
	interval   Interval
	bookingID  uuid.UUID
}

func NewReservedSlot(resourceID uuid.UUID, interval Interval, bookingID uuid.UUID) ReservedSlot {
	return ReservedSlot{resourceID: resourceID, interval: interval, bookingID: bookingID}
}

func (s ReservedSlot) ResourceID() uuid.UUID { return s.resourceID }
func (s ReservedSlot) Interval() Interval    { return s.interval }
func (s ReservedSlot) BookingID() uuid.UUID  { return s.bookingID }

// Conflict wraps ErrSlotConflict with the contended resource and range.
func Conflict(resourceID uuid.UUID, interval Interval) error {
	return errs.Wrapf(ErrSlotConflict, "resource %s %s", resourceID, interval)
}

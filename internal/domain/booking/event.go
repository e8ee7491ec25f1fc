package booking

import (
	"encoding/json"
	"time"

	"studio-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// Event is an outbox record describing a booking state change.
type Event struct {
	ID         uuid.UUID
	Type       EventType
	BookingID  uuid.UUID
	Payload    []byte
	OccurredAt time.Time
}

type eventSlot struct {
	ResourceID uuid.UUID `json:"resourceId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type eventPayload struct {
	Type       EventType   `json:"type"`
	BookingID  uuid.UUID   `json:"bookingId"`
	RequestID  uuid.UUID   `json:"requestId"`
	UserID     uuid.UUID   `json:"userId"`
	Status     Status      `json:"status"`
	Total      int64       `json:"total"`
	Slots      []eventSlot `json:"slots"`
	OccurredAt time.Time   `json:"occurredAt"`
}

func NewEvent(t EventType, b *Booking, now time.Time) (Event, error) {
	slots := make([]eventSlot, len(b.slots))
	for i, s := range b.slots {
		slots[i] = eventSlot{ResourceID: s.ResourceID, Start: s.Interval.Start(), End: s.Interval.End()}
	}
	payload, err := json.Marshal(eventPayload{
		Type:       t,
		BookingID:  b.id,
		RequestID:  b.requestID,
		UserID:     b.userID,
		Status:     b.status,
		Total:      b.snapshot.Total,
		Slots:      slots,
		OccurredAt: now.UTC(),
	})
	if err != nil {
		return Event{}, errs.Wrap(err, "encoding booking event")
	}
	return Event{
		ID:         uuid.New(),
		Type:       t,
		BookingID:  b.id,
		Payload:    payload,
		OccurredAt: now.UTC(),
	}, nil
}

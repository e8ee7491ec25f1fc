//go:build unit || e2e

package builder

import (
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/domain/pricing"
	reqdto "studio-booking/internal/handler/dto/request"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	UserID       uuid.UUID
	StudioTypeID uuid.UUID
	LocationID   uuid.UUID
	ResourceID   uuid.UUID
	ServiceIDs   []uuid.UUID
	Start        time.Time
	End          time.Time
	PhoneNumber  string
	Note         string
	Status       booking.Status
	Total        int64
	CreatedAt    time.Time
}

// NewBookingBuilder defaults to a two hour slot on a future Saturday
// afternoon in UTC+7.
func NewBookingBuilder() *BookingBuilder {
	loc := time.FixedZone("UTC+7", 7*60*60)
	start := time.Date(2030, time.June, 1, 14, 0, 0, 0, loc)
	return &BookingBuilder{
		ID:           uuid.New(),
		RequestID:    uuid.New(),
		UserID:       uuid.New(),
		StudioTypeID: uuid.New(),
		LocationID:   uuid.New(),
		ResourceID:   uuid.New(),
		Start:        start,
		End:          start.Add(2 * time.Hour),
		PhoneNumber:  "+84 90 000 0000",
		Note:         "Product shoot",
		Status:       booking.StatusConfirmed,
		Total:        400000,
		CreatedAt:    time.Date(2030, time.May, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

// Build methods
func (b *BookingBuilder) BuildDomain() *booking.Booking {
	interval, err := ledger.NewInterval(b.Start.UTC(), b.End.UTC())
	if err != nil {
		panic(err)
	}
	line := booking.PriceLine{
		ResourceID:   b.ResourceID,
		Date:         pricing.DateOf(b.Start),
		Start:        b.Start.Format("15:04"),
		End:          b.End.Format("15:04"),
		PriceTableID: uuid.New(),
		StudioPrice:  b.Total,
		Total:        b.Total,
	}
	return booking.ReconstructBooking(booking.ReconstructParams{
		ID:           b.ID,
		RequestID:    b.RequestID,
		UserID:       b.UserID,
		StudioTypeID: b.StudioTypeID,
		LocationID:   b.LocationID,
		PhoneNumber:  b.PhoneNumber,
		Note:         b.Note,
		Status:       b.Status,
		Slots: []booking.Slot{{
			ResourceID: b.ResourceID,
			Interval:   interval,
			ServiceIDs: b.ServiceIDs,
		}},
		Snapshot: booking.PriceSnapshot{
			StudioPrice: b.Total,
			Total:       b.Total,
			Lines:       []booking.PriceLine{line},
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.CreatedAt,
	})
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	resourceID := b.ResourceID
	return reqdto.CreateBookingRequest{
		StudioTypeID: b.StudioTypeID,
		LocationID:   b.LocationID,
		RoomSlotRequests: []reqdto.RoomSlotRequest{{
			StartTime:        b.Start,
			EndTime:          b.End,
			ServiceIDs:       b.ServiceIDs,
			StudioResourceID: &resourceID,
		}},
		PhoneNumber: b.PhoneNumber,
		Note:        b.Note,
	}
}

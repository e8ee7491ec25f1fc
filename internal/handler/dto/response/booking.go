package response

import (
	"time"

	"studio-booking/internal/domain/booking"

	"github.com/google/uuid"
)

type BookingSlotResponse struct {
	StudioResourceID uuid.UUID   `json:"studioResourceId"`
	StartTime        time.Time   `json:"startTime"`
	EndTime          time.Time   `json:"endTime"`
	ServiceIDs       []uuid.UUID `json:"serviceIds"`
}

type BookingResponse struct {
	ID           uuid.UUID             `json:"id"`
	RequestID    uuid.UUID             `json:"requestId"`
	UserID       uuid.UUID             `json:"userId"`
	StudioTypeID uuid.UUID             `json:"studioTypeId"`
	LocationID   uuid.UUID             `json:"locationId"`
	Status       string                `json:"status"`
	PhoneNumber  string                `json:"phoneNumber"`
	Note         string                `json:"note,omitempty"`
	PaymentInfo  string                `json:"paymentInfo,omitempty"`
	Slots        []BookingSlotResponse `json:"slots"`
	Price        booking.PriceSnapshot `json:"price"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

type BookingListResponse struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"`
	FirstStart time.Time `json:"firstStart"`
	SlotCount  int       `json:"slotCount"`
	TotalPrice int64     `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AvailabilityResponse struct {
	StudioResourceID uuid.UUID `json:"studioResourceId"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	Available        bool      `json:"available"`
}

func FromBooking(b *booking.Booking) *BookingResponse {
	slots := make([]BookingSlotResponse, len(b.Slots()))
	for i, s := range b.Slots() {
		serviceIDs := s.ServiceIDs
		if serviceIDs == nil {
			serviceIDs = []uuid.UUID{}
		}
		slots[i] = BookingSlotResponse{
			StudioResourceID: s.ResourceID,
			StartTime:        s.Interval.Start(),
			EndTime:          s.Interval.End(),
			ServiceIDs:       serviceIDs,
		}
	}
	return &BookingResponse{
		ID:           b.ID(),
		RequestID:    b.RequestID(),
		UserID:       b.UserID(),
		StudioTypeID: b.StudioTypeID(),
		LocationID:   b.LocationID(),
		Status:       b.Status().String(),
		PhoneNumber:  b.PhoneNumber(),
		Note:         b.Note(),
		PaymentInfo:  b.PaymentInfo(),
		Slots:        slots,
		Price:        b.Snapshot(),
		CreatedAt:    b.CreatedAt(),
		UpdatedAt:    b.UpdatedAt(),
	}
}

func FromBookingList(bs []*booking.Booking) []*BookingListResponse {
	out := make([]*BookingListResponse, len(bs))
	for i, b := range bs {
		item := &BookingListResponse{
			ID:         b.ID(),
			Status:     b.Status().String(),
			SlotCount:  len(b.Slots()),
			TotalPrice: b.Snapshot().Total,
			CreatedAt:  b.CreatedAt(),
		}
		for _, s := range b.Slots() {
			if item.FirstStart.IsZero() || s.Interval.Start().Before(item.FirstStart) {
				item.FirstStart = s.Interval.Start()
			}
		}
		out[i] = item
	}
	return out
}

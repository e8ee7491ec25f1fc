package request

import (
	"time"

	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type RoomSlotRequest struct {
	StartTime        time.Time   `json:"startTime" binding:"required"`
	EndTime          time.Time   `json:"endTime" binding:"required"`
	ServiceIDs       []uuid.UUID `json:"serviceIds" binding:"omitempty,max=20,dive,required"`
	StudioResourceID *uuid.UUID  `json:"studioResourceId,omitempty"`
}

type CreateBookingRequest struct {
	StudioTypeID     uuid.UUID         `json:"studioTypeId" binding:"required"`
	LocationID       uuid.UUID         `json:"locationId" binding:"required"`
	RoomSlotRequests []RoomSlotRequest `json:"roomSlotRequests" binding:"required,min=1,max=10,dive"`
	PhoneNumber      string            `json:"phoneNumber" binding:"required,max=32"`
	Note             string            `json:"note" binding:"max=1000"`
	PaymentInfo      string            `json:"paymentInfo" binding:"max=255"`
}

func (r CreateBookingRequest) ToCommand(requestID uuid.UUID, actor shared.Actor) commands.CreateBookingCommand {
	slots := make([]commands.SlotRequest, len(r.RoomSlotRequests))
	for i, s := range r.RoomSlotRequests {
		slots[i] = commands.SlotRequest{
			Start:      s.StartTime,
			End:        s.EndTime,
			ServiceIDs: s.ServiceIDs,
			ResourceID: s.StudioResourceID,
		}
	}
	return commands.CreateBookingCommand{
		RequestID:    requestID,
		Actor:        actor,
		StudioTypeID: r.StudioTypeID,
		LocationID:   r.LocationID,
		Slots:        slots,
		PhoneNumber:  r.PhoneNumber,
		Note:         r.Note,
		PaymentInfo:  r.PaymentInfo,
	}
}

type ListBookingsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type AvailabilityQuery struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

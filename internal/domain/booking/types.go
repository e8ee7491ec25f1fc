package booking

import (
	"strings"

	"studio-booking/internal/pkg/errs"
)

type Status int

const (
	StatusConfirmed Status = iota + 1
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "CONFIRMED"
	case StatusCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusCanceled:
		return true
	default:
		return false
	}
}

func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CONFIRMED":
		return StatusConfirmed, nil
	case "CANCELED":
		return StatusCanceled, nil
	default:
		return 0, errs.Wrapf(ErrInvalidStatus, "%q", s)
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, errs.Wrapf(ErrInvalidStatus, "%d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// EventType names the events written to the booking outbox.
type EventType string

const (
	EventConfirmed EventType = "booking.confirmed"
	EventCanceled  EventType = "booking.canceled"
)

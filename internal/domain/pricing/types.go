package pricing

import (
	"strings"

	"studio-booking/internal/pkg/errs"
)

var (
	ErrInvalidCatalogEntry = errs.New("invalid catalog entry")
	ErrNoPricingConfigured = errs.New("no pricing configured")
	ErrNegativeAmount      = errs.New("amount cannot be negative")
	ErrAmountOverflow      = errs.New("amount overflows int64")
)

type LifecycleStatus int

const (
	LifecycleUpcoming LifecycleStatus = iota + 1
	LifecycleActive
	LifecycleEnded
)

func (s LifecycleStatus) String() string {
	switch s {
	case LifecycleUpcoming:
		return "UPCOMING"
	case LifecycleActive:
		return "ACTIVE"
	case LifecycleEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

func (s LifecycleStatus) IsValid() bool {
	switch s {
	case LifecycleUpcoming, LifecycleActive, LifecycleEnded:
		return true
	default:
		return false
	}
}

func ParseLifecycleStatus(s string) (LifecycleStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UPCOMING":
		return LifecycleUpcoming, nil
	case "ACTIVE":
		return LifecycleActive, nil
	case "ENDED":
		return LifecycleEnded, nil
	default:
		return 0, errs.Wrapf(ErrInvalidCatalogEntry, "unknown lifecycle status %q", s)
	}
}

func (s LifecycleStatus) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, errs.Wrapf(ErrInvalidCatalogEntry, "unknown lifecycle status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *LifecycleStatus) UnmarshalText(b []byte) error {
	v, err := ParseLifecycleStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Unit is the billing granularity of a price.
type Unit int

const (
	UnitHour Unit = iota + 1
	UnitSession
	UnitOvertimeMinute
)

func (u Unit) String() string {
	switch u {
	case UnitHour:
		return "HOUR"
	case UnitSession:
		return "SESSION"
	case UnitOvertimeMinute:
		return "OVERTIME_MINUTE"
	default:
		return "UNKNOWN"
	}
}

func (u Unit) IsValid() bool {
	switch u {
	case UnitHour, UnitSession, UnitOvertimeMinute:
		return true
	default:
		return false
	}
}

// IsOvertime reports whether the unit belongs to the overtime domain.
func (u Unit) IsOvertime() bool {
	return u == UnitOvertimeMinute
}

// sizeMinutes returns the unit length in minutes, or 0 for SESSION which
// spans the whole sub-interval it prices.
func (u Unit) sizeMinutes() int64 {
	switch u {
	case UnitHour:
		return 60
	case UnitOvertimeMinute:
		return 1
	case UnitSession:
		return 0
	default:
		return 0
	}
}

func ParseUnit(s string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HOUR":
		return UnitHour, nil
	case "SESSION":
		return UnitSession, nil
	case "OVERTIME_MINUTE":
		return UnitOvertimeMinute, nil
	default:
		return 0, errs.Wrapf(ErrInvalidCatalogEntry, "unknown unit %q", s)
	}
}

func (u Unit) MarshalText() ([]byte, error) {
	if !u.IsValid() {
		return nil, errs.Wrapf(ErrInvalidCatalogEntry, "unknown unit %d", int(u))
	}
	return []byte(u.String()), nil
}

func (u *Unit) UnmarshalText(b []byte) error {
	v, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// unitDomain separates rules that compete during a sweep.
type unitDomain int

const (
	domainRegular unitDomain = iota
	domainOvertime
)

func domainOf(u Unit) unitDomain {
	if u.IsOvertime() {
		return domainOvertime
	}
	return domainRegular
}

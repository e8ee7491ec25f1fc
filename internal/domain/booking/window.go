package booking

import (
	"time"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/pkg/errs"
)

var ErrInvalidTimeWindow = errs.New("invalid time window")

// SlotWindow maps a requested [start, end) onto the business calendar in loc.
// The window must be minute aligned, must not cross midnight (ending exactly
// at midnight is allowed) and must lie within the studio type's operating
// hours.
func SlotWindow(st *studio.StudioType, start, end time.Time, loc *time.Location) (pricing.Date, pricing.TimeWindow, error) {
	if !start.Before(end) {
		return pricing.Date{}, pricing.TimeWindow{}, errs.Wrap(ErrInvalidTimeWindow, "start must be before end")
	}
	localStart, localEnd := start.In(loc), end.In(loc)
	if !minuteAligned(localStart) || !minuteAligned(localEnd) {
		return pricing.Date{}, pricing.TimeWindow{}, errs.Wrap(ErrInvalidTimeWindow, "times must be whole minutes")
	}

	date := pricing.DateOf(localStart)
	startTod := wallClock(localStart)
	var endTod pricing.TimeOfDay
	switch endDate := pricing.DateOf(localEnd); {
	case endDate.Equal(date):
		endTod = wallClock(localEnd)
	case endDate.Equal(date.AddDays(1)) && wallClock(localEnd) == 0:
		endTod = pricing.MinutesPerDay
	default:
		return pricing.Date{}, pricing.TimeWindow{}, errs.Wrapf(ErrInvalidTimeWindow, "window %s - %s crosses midnight", localStart.Format(time.RFC3339), localEnd.Format(time.RFC3339))
	}

	w := pricing.TimeWindow{Start: startTod, End: endTod}
	if !st.OperatingHours().Contains(w) {
		return pricing.Date{}, pricing.TimeWindow{}, errs.Wrapf(ErrInvalidTimeWindow, "%s is outside operating hours %s", w, st.OperatingHours())
	}
	return date, w, nil
}

func minuteAligned(t time.Time) bool {
	return t.Second() == 0 && t.Nanosecond() == 0
}

func wallClock(t time.Time) pricing.TimeOfDay {
	return pricing.TimeOfDay(t.Hour()*60 + t.Minute())
}

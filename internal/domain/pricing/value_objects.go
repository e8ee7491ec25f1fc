package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"studio-booking/internal/pkg/errs"
)

const (
	MinutesPerDay = 24 * 60
	dateLayout    = "2006-01-02"
)

// Date is a civil calendar date without time zone.
type Date struct {
	year  int
	month time.Month
	day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf takes the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, errs.Wrapf(ErrInvalidCatalogEntry, "invalid date %q", s)
	}
	return DateOf(t), nil
}

func (d Date) Year() int         { return d.year }
func (d Date) Month() time.Month { return d.month }
func (d Date) Day() int          { return d.day }
func (d Date) IsZero() bool      { return d.year == 0 && d.month == 0 && d.day == 0 }

func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// TimeOfDay is minutes since midnight; 24:00 (1440) is a valid end of day.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, errs.Wrapf(ErrInvalidCatalogEntry, "invalid time of day %02d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay accepts "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, errs.Wrapf(ErrInvalidCatalogEntry, "invalid time of day %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, errs.Wrapf(ErrInvalidCatalogEntry, "invalid time of day %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, errs.Wrapf(ErrInvalidCatalogEntry, "invalid time of day %q", s)
	}
	return NewTimeOfDay(h, m)
}

func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) IsValid() bool { return t >= 0 && t <= MinutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On anchors t to date d in loc.
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	return d.In(loc).Add(time.Duration(t) * time.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func minTime(a, b TimeOfDay) TimeOfDay {
	if a < b {
		return a
	}
	return b
}

func maxTime(a, b TimeOfDay) TimeOfDay {
	if a > b {
		return a
	}
	return b
}

// TimeWindow is the half-open interval [Start, End) within one day.
type TimeWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

func NewTimeWindow(start, end TimeOfDay) (TimeWindow, error) {
	if !start.IsValid() || !end.IsValid() {
		return TimeWindow{}, errs.Wrapf(ErrInvalidCatalogEntry, "time out of range %s-%s", start, end)
	}
	if start >= end {
		return TimeWindow{}, errs.Wrapf(ErrInvalidCatalogEntry, "start %s must be before end %s", start, end)
	}
	return TimeWindow{Start: start, End: end}, nil
}

func (w TimeWindow) Width() int { return int(w.End - w.Start) }

func (w TimeWindow) Duration() time.Duration {
	return time.Duration(w.Width()) * time.Minute
}

func (w TimeWindow) IsEmpty() bool { return w.Start >= w.End }

// Contains reports whether o lies fully inside w.
func (w TimeWindow) Contains(o TimeWindow) bool {
	return w.Start <= o.Start && o.End <= w.End
}

func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start < o.End && o.Start < w.End
}

// Clip returns the part of w inside o; the result may be empty.
func (w TimeWindow) Clip(o TimeWindow) TimeWindow {
	return TimeWindow{Start: maxTime(w.Start, o.Start), End: minTime(w.End, o.End)}
}

func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// WeekdaySet is a set of weekdays; the empty set means every day.
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

var weekdayNames = map[string]time.Weekday{
	"SUN": time.Sunday, "MON": time.Monday, "TUE": time.Tuesday, "WED": time.Wednesday,
	"THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
}

func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if len(key) > 3 {
		key = key[:3]
	}
	d, ok := weekdayNames[key]
	if !ok {
		return 0, errs.Wrapf(ErrInvalidCatalogEntry, "unknown weekday %q", s)
	}
	return d, nil
}

func ParseWeekdaySet(names []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return 0, err
		}
		s |= NewWeekdaySet(d)
	}
	return s, nil
}

func (s WeekdaySet) IsEmpty() bool { return s&0x7f == 0 }

func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s.IsEmpty() || s&(1<<uint(d)) != 0
}

// Intersects treats an empty set as every day.
func (s WeekdaySet) Intersects(o WeekdaySet) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return true
	}
	return s&o != 0
}

func (s WeekdaySet) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s&(1<<uint(d)) != 0 {
			days = append(days, d)
		}
	}
	return days
}

func (s WeekdaySet) Names() []string {
	days := s.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = strings.ToUpper(d.String()[:3])
	}
	return names
}

// Money is a non-negative amount in the platform's minor currency unit.
type Money struct {
	amount int64
}

func NewMoney(amount int64) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: amount}, nil
}

func (m Money) Amount() int64 { return m.amount }

func (m Money) Add(o Money) (Money, error) {
	if m.amount > math.MaxInt64-o.amount {
		return Money{}, ErrAmountOverflow
	}
	return Money{amount: m.amount + o.amount}, nil
}

// Times multiplies by a non-negative count of units.
func (m Money) Times(n int64) (Money, error) {
	if n < 0 {
		return Money{}, ErrNegativeAmount
	}
	if n != 0 && m.amount > math.MaxInt64/n {
		return Money{}, ErrAmountOverflow
	}
	return Money{amount: m.amount * n}, nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.amount, 10)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return errs.Wrap(err, "invalid money amount")
	}
	parsed, err := NewMoney(v)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

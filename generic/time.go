package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day used for statement ranges
// =============================================================================

// Date is a calendar day with no time-of-day or location.
// Vendor APIs take date ranges as "YYYY-MM-DD".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const DateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func Today(loc *time.Location) Date { return DateOf(time.Now().In(loc)) }

// In returns midnight of the day in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) utc() time.Time { return d.In(time.UTC) }

// Comparison
func (d Date) Before(other Date) bool       { return d.utc().Before(other.utc()) }
func (d Date) After(other Date) bool        { return d.utc().After(other.utc()) }
func (d Date) Equal(other Date) bool        { return d == other }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                 { return d == Date{} }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.utc().AddDate(0, 0, n)) }

func (d Date) String() string { return d.utc().Format(DateLayout) }

// DaysBetween returns to - from in whole days. Negative when to is earlier.
func DaysBetween(from, to Date) int { return int(to.utc().Sub(from.utc()).Hours() / 24) }

// =============================================================================
// VENDOR TIMESTAMPS
// =============================================================================

// Timecard instants arrive with or without fractional seconds, always with
// an offset: "2024-07-22T06:58:12.000-07:00" or "2024-07-22T06:58:12Z".
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
}

// ParseTimestamp parses a vendor instant and converts it to loc.
// The empty string is not an error: it means the instant is absent and the
// zero time is returned. Anything else that fails both layouts is wrapped in
// ErrMalformedTimestamp.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if loc != nil {
				t = t.In(loc)
			}
			return t, nil
		}
	}
	return time.Time{}, &TimestampError{Value: s}
}

// ShiftTimeLayout is the locale-neutral layout used on statements.
const ShiftTimeLayout = "01-02-2006 15:04:05"

package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - The date range a statement covers
// =============================================================================

// Period is an inclusive range of calendar days [Start, End].
//
// Examples:
//   - Biweekly pay period: 2024-07-21 - 2024-08-03
//   - Single day:          2024-07-22 - 2024-07-22
type Period struct {
	Start Date
	End   Date
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: missing start or end", ErrInvalidPeriod)
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// ContainsInstant reports whether t falls on a day of the period in loc.
func (p Period) ContainsInstant(t time.Time, loc *time.Location) bool {
	return p.Contains(DateOf(t.In(loc)))
}

// Days returns the number of days in the period.
func (p Period) Days() int { return DaysBetween(p.Start, p.End) + 1 }

// String renders the period the way statement files are named.
func (p Period) String() string {
	return p.Start.String() + " to " + p.End.String()
}

// Next returns the period of the same length following this one.
func (p Period) Next() Period {
	start := p.End.AddDays(1)
	return Period{Start: start, End: start.AddDays(p.Days() - 1)}
}

// Previous returns the period of the same length before this one.
func (p Period) Previous() Period {
	end := p.Start.AddDays(-1)
	return Period{Start: end.AddDays(-(p.Days() - 1)), End: end}
}

// =============================================================================
// PAY PERIOD CALCULATOR - Determines which pay period a date falls into
// =============================================================================

// PayPeriodConfig describes fixed-length pay periods counted from an anchor.
// A biweekly schedule starting on Sunday 2024-07-21 is
// PayPeriodConfig{Anchor: NewDate(2024, time.July, 21), Length: 14}.
type PayPeriodConfig struct {
	Anchor Date
	Length int
}

func (pc PayPeriodConfig) Validate() error {
	if pc.Anchor.IsZero() {
		return fmt.Errorf("%w: pay period anchor not set", ErrInvalidPeriod)
	}
	if pc.Length < 1 {
		return fmt.Errorf("%w: pay period length %d", ErrInvalidPeriod, pc.Length)
	}
	return nil
}

// PeriodFor returns the pay period that contains date. Dates before the
// anchor fall into earlier periods of the same length.
func (pc PayPeriodConfig) PeriodFor(date Date) Period {
	length := pc.Length
	if length < 1 {
		length = 1
	}
	offset := DaysBetween(pc.Anchor, date)
	n := offset / length
	if offset < 0 && offset%length != 0 {
		n--
	}
	start := pc.Anchor.AddDays(n * length)
	return Period{Start: start, End: start.AddDays(length - 1)}
}

// LastCompleted returns the most recent pay period that ended before date.
func (pc PayPeriodConfig) LastCompleted(date Date) Period {
	return pc.PeriodFor(date).Previous()
}

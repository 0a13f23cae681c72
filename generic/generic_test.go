package generic

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// PAY PERIOD TESTS
// =============================================================================

func TestPayPeriodConfig_PeriodFor(t *testing.T) {
	pc := PayPeriodConfig{Anchor: NewDate(2024, time.July, 21), Length: 14}

	tests := []struct {
		name  string
		date  Date
		start Date
		end   Date
	}{
		{"anchor day", NewDate(2024, time.July, 21), NewDate(2024, time.July, 21), NewDate(2024, time.August, 3)},
		{"last day", NewDate(2024, time.August, 3), NewDate(2024, time.July, 21), NewDate(2024, time.August, 3)},
		{"next period", NewDate(2024, time.August, 4), NewDate(2024, time.August, 4), NewDate(2024, time.August, 17)},
		{"before anchor", NewDate(2024, time.July, 20), NewDate(2024, time.July, 7), NewDate(2024, time.July, 20)},
		{"across year", NewDate(2025, time.January, 1), NewDate(2024, time.December, 22), NewDate(2025, time.January, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pc.PeriodFor(tt.date)
			assert.Equal(t, tt.start, p.Start)
			assert.Equal(t, tt.end, p.End)
			assert.True(t, p.Contains(tt.date))
		})
	}
}

func TestPayPeriodConfig_LastCompleted(t *testing.T) {
	pc := PayPeriodConfig{Anchor: NewDate(2024, time.July, 21), Length: 14}

	p := pc.LastCompleted(NewDate(2024, time.August, 5))

	assert.Equal(t, "2024-07-21 to 2024-08-03", p.String())
	assert.Equal(t, 14, p.Days())
}

func TestPayPeriodConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, PayPeriodConfig{Length: 14}.Validate(), ErrInvalidPeriod)
	assert.ErrorIs(t, PayPeriodConfig{Anchor: NewDate(2024, time.July, 21)}.Validate(), ErrInvalidPeriod)
	assert.NoError(t, PayPeriodConfig{Anchor: NewDate(2024, time.July, 21), Length: 7}.Validate())
}

func TestPeriod_NextPrevious(t *testing.T) {
	p := Period{Start: NewDate(2024, time.July, 21), End: NewDate(2024, time.August, 3)}

	assert.Equal(t, p, p.Next().Previous())
	assert.Equal(t, NewDate(2024, time.August, 4), p.Next().Start)
	assert.Equal(t, NewDate(2024, time.July, 20), p.Previous().End)
}

func TestPeriod_Validate(t *testing.T) {
	day := NewDate(2024, time.July, 21)

	assert.NoError(t, Period{Start: day, End: day}.Validate())
	assert.ErrorIs(t, Period{Start: day.AddDays(1), End: day}.Validate(), ErrInvalidPeriod)
	assert.ErrorIs(t, Period{Start: day}.Validate(), ErrInvalidPeriod)
}

func TestPeriod_ContainsInstant(t *testing.T) {
	phoenix := time.FixedZone("MST", -7*60*60)
	p := Period{Start: NewDate(2024, time.July, 21), End: NewDate(2024, time.August, 3)}

	// 2024-08-04 05:00 UTC is still 2024-08-03 in Phoenix
	late := time.Date(2024, time.August, 4, 5, 0, 0, 0, time.UTC)
	assert.True(t, p.ContainsInstant(late, phoenix))
	assert.False(t, p.ContainsInstant(late, time.UTC))
}

// =============================================================================
// DATE AND TIMESTAMP TESTS
// =============================================================================

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-07-21")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.July, 21), d)

	_, err = ParseDate("07/21/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.True(t, IsClientError(err))
}

func TestParseTimestamp(t *testing.T) {
	phoenix := time.FixedZone("MST", -7*60*60)

	withFraction, err := ParseTimestamp("2024-07-22T06:58:12.000-07:00", phoenix)
	require.NoError(t, err)
	plain, err := ParseTimestamp("2024-07-22T13:58:12Z", phoenix)
	require.NoError(t, err)

	assert.True(t, withFraction.Equal(plain))
	assert.Equal(t, 6, plain.Hour(), "converted to the business zone")

	empty, err := ParseTimestamp("", phoenix)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = ParseTimestamp("yesterday", phoenix)
	var tsErr *TimestampError
	require.True(t, errors.As(err, &tsErr))
	assert.Equal(t, "yesterday", tsErr.Value)
	assert.ErrorIs(t, err, ErrMalformedTimestamp)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 13, DaysBetween(NewDate(2024, time.July, 21), NewDate(2024, time.August, 3)))
	assert.Equal(t, -1, DaysBetween(NewDate(2024, time.July, 21), NewDate(2024, time.July, 20)))
	// DST transitions do not shorten a day.
	assert.Equal(t, 1, DaysBetween(NewDate(2024, time.March, 10), NewDate(2024, time.March, 11)))
}

// =============================================================================
// MONEY TESTS
// =============================================================================

func TestRounding_Cents(t *testing.T) {
	half := decimal.RequireFromString("0.125")

	assert.Equal(t, "0.13", RoundHalfAwayFromZero.Cents(half).String())
	assert.Equal(t, "0.12", RoundHalfEven.Cents(half).String())
	assert.Equal(t, "-0.13", RoundHalfAwayFromZero.Cents(half.Neg()).String())
	assert.Equal(t, "0.13", Rounding("").Cents(half).String(), "unknown mode rounds half away from zero")
}

func TestParseModes(t *testing.T) {
	r, err := ParseRounding("")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfAwayFromZero, r)

	r, err = ParseRounding(" Bankers ")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfEven, r)

	_, err = ParseRounding("ceiling")
	assert.ErrorIs(t, err, ErrInvalidOption)

	a, err := ParseAccumulation("deferred")
	require.NoError(t, err)
	assert.Equal(t, AccumulateDeferred, a)

	_, err = ParseAccumulation("weekly")
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestCentsAndDollars(t *testing.T) {
	assert.Equal(t, "$12.50", FormatDollars(CentsToDollars(1250)))
	assert.Equal(t, "-$0.05", FormatDollars(CentsToDollars(-5)))
	assert.Equal(t, "$0.00", FormatDollars(decimal.Zero))
	assert.True(t, MustParseDecimal("not a number").IsZero())
	assert.Equal(t, "16.5", MustParseDecimal("16.50").String())
}

func TestAPIError(t *testing.T) {
	err := &APIError{Service: "homebase", Op: "list timecards", StatusCode: 401, Body: "bad key"}

	assert.ErrorIs(t, err, ErrVendorRequest)
	assert.True(t, IsVendorError(err))
	assert.False(t, IsClientError(err))
	assert.Contains(t, err.Error(), "401")
}

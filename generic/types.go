/*
Package generic provides the money, time and period primitives shared by the
tip allocation engine and its collaborators.

PURPOSE:
  Tips, wages and hours are payroll figures. They are carried as
  decimal.Decimal everywhere and rounded to cents at well-defined points,
  so that a statement adds up the same way every time it is produced.

KEY CONCEPTS IN THIS FILE (types.go):
  - Rounding: how a value is brought to two decimal places
  - Accumulation: when a running tip total is rounded
  - Cents helpers: vendor amounts arrive as integer cents

ROUNDING:
  RoundHalfAwayFromZero (default): 0.125 -> 0.13, -0.125 -> -0.13
  RoundHalfEven:                   0.125 -> 0.12, 0.135 -> 0.14

  Both are exact on decimals. Neither depends on binary floating point.

USAGE:
  r := generic.RoundHalfAwayFromZero
  share := r.Cents(amount.Div(decimal.NewFromInt(3)))
  fmt.Println(generic.FormatDollars(share)) // "$3.33"

SEE ALSO:
  - period.go: Pay period calculation
  - time.go: Vendor timestamp parsing
  - tips/allocator.go: Uses Rounding and Accumulation
*/
package generic

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CentPlaces is the number of decimal places every payroll figure is kept at.
const CentPlaces = 2

// =============================================================================
// ROUNDING
// =============================================================================

type Rounding string

const (
	RoundHalfAwayFromZero Rounding = "half_away_from_zero"
	RoundHalfEven         Rounding = "half_even"
)

// Cents rounds d to two decimal places using the mode.
// An unknown mode rounds half away from zero.
func (r Rounding) Cents(d decimal.Decimal) decimal.Decimal {
	if r == RoundHalfEven {
		return d.RoundBank(CentPlaces)
	}
	return d.Round(CentPlaces)
}

func (r Rounding) Valid() bool {
	return r == RoundHalfAwayFromZero || r == RoundHalfEven
}

// ParseRounding accepts the mode names used in configuration and API bodies.
// The empty string selects the default.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(RoundHalfAwayFromZero), "half_up", "away":
		return RoundHalfAwayFromZero, nil
	case string(RoundHalfEven), "bank", "bankers":
		return RoundHalfEven, nil
	}
	return "", fmt.Errorf("%w: rounding %q", ErrInvalidOption, s)
}

// =============================================================================
// ACCUMULATION
// =============================================================================

// Accumulation selects when a shift's running tip total is rounded.
type Accumulation string

const (
	// AccumulatePerStep rounds the running total after every increment.
	// Totals may drift by a cent over many tips.
	AccumulatePerStep Accumulation = "per_step"

	// AccumulateDeferred keeps the running total at full precision and
	// rounds once when the ledger is finalized.
	AccumulateDeferred Accumulation = "deferred"
)

func (a Accumulation) Valid() bool {
	return a == AccumulatePerStep || a == AccumulateDeferred
}

func ParseAccumulation(s string) (Accumulation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(AccumulatePerStep), "step":
		return AccumulatePerStep, nil
	case string(AccumulateDeferred), "final":
		return AccumulateDeferred, nil
	}
	return "", fmt.Errorf("%w: accumulation %q", ErrInvalidOption, s)
}

// =============================================================================
// CENTS HELPERS
// =============================================================================

// CentsToDollars converts an integer amount of minor units to dollars exactly.
func CentsToDollars(cents int64) decimal.Decimal {
	return decimal.New(cents, -CentPlaces)
}

// FormatDollars renders d as "$12.50". Negative values render as "-$12.50".
func FormatDollars(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(CentPlaces)
	}
	return "$" + d.StringFixed(CentPlaces)
}

// MustParseDecimal parses s, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

/*
Package tips splits credit-card tips among the shifts that were clocked in
when each tip was received.

PURPOSE:
  Two independent records meet here: time-clock shifts from the scheduling
  service and tip payments from the point-of-sale processor. A tip belongs
  to every shift whose [ClockIn, ClockOut] contains the tip instant, and is
  split evenly between them.

KEY CONCEPTS:
  - Shift:     One employee's clocked-in interval with an hourly wage
  - ShiftKey:  Comparable identity of a shift, used to index the ledger
  - TipEvent:  One tip payment with an instant and an amount
  - Ledger:    Accumulated tips per shift for one allocation pass
  - Allocator: Runs the pass

INVARIANTS:
  1. Every closed shift appears in the ledger exactly once, even with no tips
  2. Open shifts (no clock-out) never appear in the ledger
  3. A ledger entry never decreases during a pass
  4. A tip no closed shift overlaps contributes nothing and is recorded

SEE ALSO:
  - allocator.go: The allocation pass
  - report/aggregate.go: Turns a ledger into statement rows
*/
package tips

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/tip-engine/generic"
)

// =============================================================================
// SHIFT
// =============================================================================

// Shift is immutable once constructed. A zero ClockIn or ClockOut means the
// instant is absent; a shift without a clock-out is open.
type Shift struct {
	FirstName string
	LastName  string

	// EmployeeID is the scheduling service's stable employee id. Optional:
	// when empty, reports group shifts by name.
	EmployeeID string

	Wage     decimal.Decimal // currency per hour
	ClockIn  time.Time
	ClockOut time.Time
	SourceID string // timecard id, for traceability
}

// NewShift validates and returns a shift. clockOut may be the zero time for
// an open shift.
func NewShift(first, last, employeeID string, wage decimal.Decimal, clockIn, clockOut time.Time, sourceID string) (Shift, error) {
	s := Shift{
		FirstName:  first,
		LastName:   last,
		EmployeeID: employeeID,
		Wage:       wage,
		ClockIn:    clockIn,
		ClockOut:   clockOut,
		SourceID:   sourceID,
	}
	if err := s.Validate(); err != nil {
		return Shift{}, err
	}
	return s, nil
}

func (s Shift) Validate() error {
	if s.Wage.IsNegative() {
		return fmt.Errorf("%w: %s: negative wage %s", generic.ErrInvalidShift, s.SourceID, s.Wage)
	}
	if !s.ClockIn.IsZero() && !s.ClockOut.IsZero() && s.ClockOut.Before(s.ClockIn) {
		return fmt.Errorf("%w: %s: clock-out %s before clock-in %s",
			generic.ErrInvalidShift, s.SourceID, s.ClockOut.Format(time.RFC3339), s.ClockIn.Format(time.RFC3339))
	}
	return nil
}

// Closed reports whether both instants are present and ordered.
func (s Shift) Closed() bool {
	return !s.ClockIn.IsZero() && !s.ClockOut.IsZero() && !s.ClockOut.Before(s.ClockIn)
}

// Covers reports whether t is within [ClockIn, ClockOut], inclusive on both ends.
func (s Shift) Covers(t time.Time) bool {
	return s.Closed() && !t.Before(s.ClockIn) && !t.After(s.ClockOut)
}

// Duration is zero for a shift that is not closed.
func (s Shift) Duration() time.Duration {
	if !s.Closed() {
		return 0
	}
	return s.ClockOut.Sub(s.ClockIn)
}

func (s Shift) Name() string { return s.FirstName + " " + s.LastName }

// Key returns the shift's identity.
func (s Shift) Key() ShiftKey {
	return ShiftKey{
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		EmployeeID: s.EmployeeID,
		ClockIn:    unixNano(s.ClockIn),
		ClockOut:   unixNano(s.ClockOut),
		Wage:       s.Wage.String(),
		SourceID:   s.SourceID,
	}
}

// ShiftKey is the comparable identity of a shift. Instants are held as
// UnixNano and the wage as its canonical decimal string, so equal shifts
// yield equal keys whatever their time.Location or decimal exponent.
type ShiftKey struct {
	FirstName  string
	LastName   string
	EmployeeID string
	ClockIn    int64
	ClockOut   int64
	Wage       string
	SourceID   string
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// =============================================================================
// TIP EVENT
// =============================================================================

// TipEvent is one tip payment. Zero-amount payments are filtered out by the
// tip source before allocation.
type TipEvent struct {
	PaymentID  string
	ReceivedAt time.Time
	Amount     decimal.Decimal
}

func NewTipEvent(paymentID string, receivedAt time.Time, amount decimal.Decimal) (TipEvent, error) {
	t := TipEvent{PaymentID: paymentID, ReceivedAt: receivedAt, Amount: amount}
	if err := t.Validate(); err != nil {
		return TipEvent{}, err
	}
	return t, nil
}

func (t TipEvent) Validate() error {
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: %s: negative amount %s", generic.ErrInvalidTip, t.PaymentID, t.Amount)
	}
	if t.ReceivedAt.IsZero() {
		return fmt.Errorf("%w: %s: missing timestamp", generic.ErrInvalidTip, t.PaymentID)
	}
	return nil
}

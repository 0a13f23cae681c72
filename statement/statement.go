/*
Package statement runs the tip reconciliation batch for one date range.

PURPOSE:
  Fetches shifts from the scheduling service and tips from the payment
  processor, allocates every tip to the shifts active at its instant, and
  aggregates the ledger into statement rows.

FLOW:
  ShiftSource + TipSource -> tips.Allocator -> tips.Ledger -> report.Aggregate -> []report.Row

  Each Generate call is independent. Nothing from an earlier statement is
  read back, so the same inputs always produce the same rows.

SEE ALSO:
  - tips/allocator.go: Allocation pass
  - report/aggregate.go: Statement rows
  - store/sqlite: Statement archive
*/
package statement

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/report"
	"github.com/warp/tip-engine/tips"
)

// ShiftSource supplies validated shifts for a period.
type ShiftSource interface {
	Shifts(ctx context.Context, period generic.Period) ([]tips.Shift, error)
}

// TipSource supplies the period's tip events and the number of payments
// they were extracted from.
type TipSource interface {
	Tips(ctx context.Context, period generic.Period) ([]tips.TipEvent, int, error)
}

// Statement is the result of one batch run.
type Statement struct {
	ID           string
	BusinessName string
	Period       generic.Period
	Rounding     generic.Rounding
	Accumulation generic.Accumulation
	GeneratedAt  time.Time

	Rows   []report.Row
	Ledger *tips.Ledger

	Timecards  int
	Payments   int
	CreditTips int

	TotalTips    decimal.Decimal
	Unattributed []tips.TipEvent
}

// Filename is the CSV name for the statement, named by its date range.
func (s *Statement) Filename() string {
	return fmt.Sprintf("%s Timecards %s to %s.csv", s.BusinessName, s.Period.Start, s.Period.End)
}

// UnattributedTotal is the sum of tips no shift overlapped.
func (s *Statement) UnattributedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.Unattributed {
		total = total.Add(t.Amount)
	}
	return total
}

// Service generates statements.
type Service struct {
	Shifts       ShiftSource
	Tips         TipSource
	BusinessName string
	Rounding     generic.Rounding
	Accumulation generic.Accumulation
	Logger       *slog.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

// Generate fetches, allocates and aggregates one period.
func (s *Service) Generate(ctx context.Context, period generic.Period) (*Statement, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	log := s.logger().With("period", period.String())

	shifts, err := s.Shifts.Shifts(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts: %w", err)
	}
	events, payments, err := s.Tips.Tips(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tips: %w", err)
	}

	st := s.Build(period, shifts, events)
	st.Payments = payments

	log.Info("statement generated",
		"statement_id", st.ID,
		"timecards", st.Timecards,
		"payments", st.Payments,
		"credit_tips", st.CreditTips,
		"rows", len(st.Rows),
		"total_tips", generic.FormatDollars(st.TotalTips),
		"unattributed_tips", len(st.Unattributed))
	return st, nil
}

// Build runs the allocation and aggregation over already-fetched inputs.
func (s *Service) Build(period generic.Period, shifts []tips.Shift, events []tips.TipEvent) *Statement {
	allocator := &tips.Allocator{
		Logger:       s.logger(),
		Rounding:     s.Rounding,
		Accumulation: s.Accumulation,
	}
	ledger := allocator.Allocate(events, shifts)

	return &Statement{
		ID:           uuid.NewString(),
		BusinessName: s.BusinessName,
		Period:       period,
		Rounding:     ledger.Rounding(),
		Accumulation: ledger.Accumulation(),
		GeneratedAt:  s.now(),
		Rows:         report.Aggregate(ledger),
		Ledger:       ledger,
		Timecards:    len(shifts),
		CreditTips:   len(events),
		TotalTips:    ledger.Total(),
		Unattributed: ledger.Unattributed(),
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

// Unavailable is a ShiftSource and TipSource that always fails with Err.
// It stands in for a vendor whose credentials are not configured.
type Unavailable struct{ Err error }

func (u Unavailable) Shifts(context.Context, generic.Period) ([]tips.Shift, error) {
	return nil, u.Err
}

func (u Unavailable) Tips(context.Context, generic.Period) ([]tips.TipEvent, int, error) {
	return nil, 0, u.Err
}

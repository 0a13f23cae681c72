/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types in tips,
  report and store/sqlite never carry json tags; these types are the wire
  contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  All amounts are decimal.Decimal and serialize as JSON strings ("12.50").
  Requests accept either strings or numbers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/report"
	"github.com/warp/tip-engine/store/sqlite"
	"github.com/warp/tip-engine/tips"
)

// =============================================================================
// ALLOCATION
// =============================================================================

// ShiftDTO is a shift as submitted to POST /api/allocations. ClockOut is
// omitted for a shift that is still open.
type ShiftDTO struct {
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	EmployeeID string          `json:"employee_id,omitempty"`
	Wage       decimal.Decimal `json:"wage"`
	ClockIn    *time.Time      `json:"clock_in"`
	ClockOut   *time.Time      `json:"clock_out,omitempty"`
	SourceID   string          `json:"source_id,omitempty"`
}

func (d ShiftDTO) toShift() tips.Shift {
	s := tips.Shift{
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		EmployeeID: d.EmployeeID,
		Wage:       d.Wage,
		SourceID:   d.SourceID,
	}
	if d.ClockIn != nil {
		s.ClockIn = *d.ClockIn
	}
	if d.ClockOut != nil {
		s.ClockOut = *d.ClockOut
	}
	return s
}

func toShiftDTO(s tips.Shift) ShiftDTO {
	d := ShiftDTO{
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		EmployeeID: s.EmployeeID,
		Wage:       s.Wage,
		SourceID:   s.SourceID,
	}
	if !s.ClockIn.IsZero() {
		in := s.ClockIn
		d.ClockIn = &in
	}
	if !s.ClockOut.IsZero() {
		out := s.ClockOut
		d.ClockOut = &out
	}
	return d
}

// TipDTO is a single credit tip.
type TipDTO struct {
	PaymentID  string          `json:"payment_id,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
	Amount     decimal.Decimal `json:"amount"`
}

func (d TipDTO) toTipEvent() tips.TipEvent {
	return tips.TipEvent{PaymentID: d.PaymentID, ReceivedAt: d.ReceivedAt, Amount: d.Amount}
}

func toTipDTOs(events []tips.TipEvent) []TipDTO {
	dtos := make([]TipDTO, len(events))
	for i, e := range events {
		dtos[i] = TipDTO{PaymentID: e.PaymentID, ReceivedAt: e.ReceivedAt, Amount: e.Amount}
	}
	return dtos
}

// AllocationRequest is the body for POST /api/allocations.
type AllocationRequest struct {
	Shifts       []ShiftDTO `json:"shifts"`
	Tips         []TipDTO   `json:"tips"`
	Rounding     string     `json:"rounding,omitempty"`
	Accumulation string     `json:"accumulation,omitempty"`
}

// EntryDTO is one ledger entry.
type EntryDTO struct {
	Shift  ShiftDTO        `json:"shift"`
	Tips   decimal.Decimal `json:"tips"`
	Shares int             `json:"shares"`
}

// AllocationResponse is the result of an allocation pass.
type AllocationResponse struct {
	Rounding          string          `json:"rounding"`
	Accumulation      string          `json:"accumulation"`
	Entries           []EntryDTO      `json:"entries"`
	TotalTips         decimal.Decimal `json:"total_tips"`
	Unattributed      []TipDTO        `json:"unattributed"`
	UnattributedTotal decimal.Decimal `json:"unattributed_total"`
	SkippedShifts     []ShiftDTO      `json:"skipped_shifts"`
	Rows              []RowDTO        `json:"rows"`
}

func toAllocationResponse(ledger *tips.Ledger, rows []report.Row) AllocationResponse {
	entries := ledger.Entries()
	resp := AllocationResponse{
		Rounding:          string(ledger.Rounding()),
		Accumulation:      string(ledger.Accumulation()),
		Entries:           make([]EntryDTO, len(entries)),
		TotalTips:         ledger.Total(),
		Unattributed:      toTipDTOs(ledger.Unattributed()),
		UnattributedTotal: ledger.UnattributedTotal(),
		SkippedShifts:     []ShiftDTO{},
		Rows:              toRowDTOs(rows),
	}
	for i, e := range entries {
		resp.Entries[i] = EntryDTO{Shift: toShiftDTO(e.Shift), Tips: e.Tips, Shares: e.Shares}
	}
	for _, s := range ledger.Skipped() {
		resp.SkippedShifts = append(resp.SkippedShifts, toShiftDTO(s))
	}
	return resp
}

// =============================================================================
// STATEMENT ROWS
// =============================================================================

// RowDTO is one statement row. Start, End, Wage and SourceID are only set on
// shift rows.
type RowDTO struct {
	Kind            string           `json:"kind"`
	FirstName       string           `json:"first_name,omitempty"`
	LastName        string           `json:"last_name,omitempty"`
	EmployeeID      string           `json:"employee_id,omitempty"`
	Tips            *decimal.Decimal `json:"tips,omitempty"`
	Hours           *decimal.Decimal `json:"hours,omitempty"`
	Earnings        *decimal.Decimal `json:"earnings,omitempty"`
	EarningsWithTip *decimal.Decimal `json:"earnings_with_tip,omitempty"`
	Start           *time.Time       `json:"start,omitempty"`
	End             *time.Time       `json:"end,omitempty"`
	Wage            *decimal.Decimal `json:"wage,omitempty"`
	SourceID        string           `json:"source_id,omitempty"`
}

func toRowDTO(r report.Row) RowDTO {
	dto := RowDTO{Kind: r.Kind.String()}
	if r.Kind == report.RowSeparator {
		return dto
	}
	dto.FirstName = r.FirstName
	dto.LastName = r.LastName
	dto.EmployeeID = r.EmployeeID
	dto.Tips = decimalPtr(r.Tips)
	dto.Hours = decimalPtr(r.Hours)
	dto.Earnings = decimalPtr(r.Earnings)
	dto.EarningsWithTip = decimalPtr(r.EarningsWithTip)
	if r.Kind == report.RowShift {
		start, end := r.Start, r.End
		dto.Start = &start
		dto.End = &end
		dto.Wage = decimalPtr(r.Wage)
		dto.SourceID = r.SourceID
	}
	return dto
}

func toRowDTOs(rows []report.Row) []RowDTO {
	dtos := make([]RowDTO, len(rows))
	for i, r := range rows {
		dtos[i] = toRowDTO(r)
	}
	return dtos
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

// =============================================================================
// STATEMENTS
// =============================================================================

// GenerateStatementRequest is the body for POST /api/statements. Both dates
// are optional; when omitted the last completed pay period is used.
type GenerateStatementRequest struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// PeriodDTO is a date range in YYYY-MM-DD form.
type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

func toPeriodDTO(p generic.Period) PeriodDTO {
	return PeriodDTO{Start: p.Start.String(), End: p.End.String(), Days: p.Days()}
}

// StatementSummaryDTO is an archived statement without its rows.
type StatementSummaryDTO struct {
	ID                string          `json:"id"`
	BusinessName      string          `json:"business_name"`
	Period            PeriodDTO       `json:"period"`
	Rounding          string          `json:"rounding"`
	Accumulation      string          `json:"accumulation"`
	Timecards         int             `json:"timecards"`
	Payments          int             `json:"payments"`
	CreditTips        int             `json:"credit_tips"`
	TotalTips         decimal.Decimal `json:"total_tips"`
	UnattributedTotal decimal.Decimal `json:"unattributed_total"`
	Filename          string          `json:"filename"`
	GeneratedAt       string          `json:"generated_at"`
}

func toStatementSummaryDTO(r sqlite.StatementRecord) StatementSummaryDTO {
	return StatementSummaryDTO{
		ID:                r.ID,
		BusinessName:      r.BusinessName,
		Period:            toPeriodDTO(r.Period),
		Rounding:          string(r.Rounding),
		Accumulation:      string(r.Accumulation),
		Timecards:         r.Timecards,
		Payments:          r.Payments,
		CreditTips:        r.CreditTips,
		TotalTips:         r.TotalTips,
		UnattributedTotal: r.UnattributedTotal,
		Filename:          r.Filename(),
		GeneratedAt:       r.GeneratedAt.Format(time.RFC3339),
	}
}

// StatementDTO is a full statement with rows and unattributed tips.
type StatementDTO struct {
	StatementSummaryDTO
	Rows         []RowDTO `json:"rows"`
	Unattributed []TipDTO `json:"unattributed"`
}

// PayPeriodsDTO is the response for GET /api/pay-periods/current.
type PayPeriodsDTO struct {
	Today         string    `json:"today"`
	Current       PeriodDTO `json:"current"`
	LastCompleted PeriodDTO `json:"last_completed"`
	Archived      bool      `json:"last_completed_archived"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

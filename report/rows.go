/*
Package report turns an allocation ledger into an ordered payroll statement.

PURPOSE:
  Each closed shift becomes a detail row with its hours, earnings and
  allocated tips. Shifts are grouped by employee; each group ends with a
  subtotal row, and groups are separated by a blank row.

ROW LAYOUT (ten columns):
  First Name | Last Name | Credit Tips | Shift Start | Shift End |
  Shift Hours | Wage | Timecard ID | Earnings | Earnings with Tip

  Subtotal rows leave Shift Start, Shift End, Wage and Timecard ID blank.
  Separator rows are blank in every column.

SEE ALSO:
  - aggregate.go: Ordering, grouping and arithmetic
  - csv.go, table.go: Rendering
*/
package report

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/tip-engine/generic"
)

// Header is the statement's column header.
var Header = []string{
	"First Name",
	"Last Name",
	"Credit Tips",
	"Shift Start",
	"Shift End",
	"Shift Hours",
	"Wage",
	"Timecard ID",
	"Earnings",
	"Earnings with Tip",
}

type RowKind int

const (
	RowShift RowKind = iota
	RowSubtotal
	RowSeparator
)

func (k RowKind) String() string {
	switch k {
	case RowShift:
		return "shift"
	case RowSubtotal:
		return "subtotal"
	case RowSeparator:
		return "separator"
	}
	return "unknown"
}

// Row is one statement line. Rows are produced once by Aggregate and never
// modified.
type Row struct {
	Kind RowKind

	FirstName  string
	LastName   string
	EmployeeID string

	Tips            decimal.Decimal
	Hours           decimal.Decimal
	Earnings        decimal.Decimal
	EarningsWithTip decimal.Decimal

	// Shift rows only.
	Start    time.Time
	End      time.Time
	Wage     decimal.Decimal
	SourceID string
}

// Record renders the row's ten columns.
func (r Row) Record() []string {
	switch r.Kind {
	case RowShift:
		return []string{
			r.FirstName,
			r.LastName,
			generic.FormatDollars(r.Tips),
			r.Start.Format(generic.ShiftTimeLayout),
			r.End.Format(generic.ShiftTimeLayout),
			r.Hours.StringFixed(generic.CentPlaces),
			generic.FormatDollars(r.Wage),
			r.SourceID,
			generic.FormatDollars(r.Earnings),
			generic.FormatDollars(r.EarningsWithTip),
		}
	case RowSubtotal:
		return []string{
			r.FirstName,
			r.LastName,
			generic.FormatDollars(r.Tips),
			"",
			"",
			r.Hours.StringFixed(generic.CentPlaces),
			"",
			"",
			generic.FormatDollars(r.Earnings),
			generic.FormatDollars(r.EarningsWithTip),
		}
	}
	return make([]string, len(Header))
}

// Records renders every row.
func Records(rows []Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	return out
}

// Subtotals returns the subtotal rows in statement order.
func Subtotals(rows []Row) []Row {
	var out []Row
	for _, r := range rows {
		if r.Kind == RowSubtotal {
			out = append(out, r)
		}
	}
	return out
}

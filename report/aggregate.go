package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/tips"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Aggregate orders the ledger by employee and clock-in and emits detail,
// subtotal and separator rows. An empty ledger yields no rows.
//
// Shifts are grouped by Shift.EmployeeID when the source supplied one, and
// by (first name, last name) otherwise. Name grouping merges two employees
// who share a name into one subtotal.
func Aggregate(ledger *tips.Ledger) []Row {
	entries := ledger.Entries()
	if len(entries) == 0 {
		return nil
	}
	rounding := ledger.Rounding()

	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i].Shift, entries[j].Shift)
	})

	rows := make([]Row, 0, 3*len(entries))
	var acc subtotal
	for i, e := range entries {
		if i > 0 && groupKey(e.Shift) != groupKey(entries[i-1].Shift) {
			rows = append(rows, acc.row(rounding), Row{Kind: RowSeparator})
			acc = subtotal{}
		}

		row := detail(e, rounding)
		acc.add(row)
		rows = append(rows, row)
	}
	return append(rows, acc.row(rounding))
}

func detail(e tips.Entry, r generic.Rounding) Row {
	s := e.Shift
	hours := r.Cents(decimal.New(s.Duration().Nanoseconds(), -9).Div(secondsPerHour))
	earnings := r.Cents(hours.Mul(s.Wage))
	return Row{
		Kind:            RowShift,
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		EmployeeID:      s.EmployeeID,
		Tips:            r.Cents(e.Tips),
		Hours:           hours,
		Earnings:        earnings,
		EarningsWithTip: r.Cents(earnings.Add(e.Tips)),
		Start:           s.ClockIn,
		End:             s.ClockOut,
		Wage:            s.Wage,
		SourceID:        s.SourceID,
	}
}

// subtotal accumulates one employee's detail rows.
type subtotal struct {
	first, last, employeeID string

	tips, hours, earnings, withTip decimal.Decimal
}

func (s *subtotal) add(r Row) {
	s.first, s.last, s.employeeID = r.FirstName, r.LastName, r.EmployeeID
	s.tips = s.tips.Add(r.Tips)
	s.hours = s.hours.Add(r.Hours)
	s.earnings = s.earnings.Add(r.Earnings)
	s.withTip = s.withTip.Add(r.EarningsWithTip)
}

func (s subtotal) row(r generic.Rounding) Row {
	return Row{
		Kind:            RowSubtotal,
		FirstName:       s.first,
		LastName:        s.last,
		EmployeeID:      s.employeeID,
		Tips:            r.Cents(s.tips),
		Hours:           r.Cents(s.hours),
		Earnings:        r.Cents(s.earnings),
		EarningsWithTip: r.Cents(s.withTip),
	}
}

// less orders by first name, last name, clock-in. Employee id keeps
// same-named employees contiguous; clock-out and timecard id make the order
// total.
func less(a, b tips.Shift) bool {
	if c := strings.Compare(a.FirstName, b.FirstName); c != 0 {
		return c < 0
	}
	if c := strings.Compare(a.LastName, b.LastName); c != 0 {
		return c < 0
	}
	if c := strings.Compare(a.EmployeeID, b.EmployeeID); c != 0 {
		return c < 0
	}
	if !a.ClockIn.Equal(b.ClockIn) {
		return a.ClockIn.Before(b.ClockIn)
	}
	if !a.ClockOut.Equal(b.ClockOut) {
		return a.ClockOut.Before(b.ClockOut)
	}
	return a.SourceID < b.SourceID
}

type group struct {
	employeeID  string
	first, last string
}

func groupKey(s tips.Shift) group {
	if s.EmployeeID != "" {
		return group{employeeID: s.EmployeeID}
	}
	return group{first: s.FirstName, last: s.LastName}
}

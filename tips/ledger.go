package tips

import (
	"github.com/shopspring/decimal"
	"github.com/warp/tip-engine/generic"
)

// =============================================================================
// LEDGER - Accumulated tips per shift for one allocation pass
// =============================================================================

// Entry is one shift and the tips allocated to it.
type Entry struct {
	Shift Shift
	Tips  decimal.Decimal

	// Shares counts the tips this shift took part in.
	Shares int
}

// Ledger maps shift identity to accumulated tips. It is built by a single
// Allocate call and is read-only once returned.
type Ledger struct {
	entries []Entry
	index   map[ShiftKey]int

	unattributed []TipEvent
	skipped      []Shift

	rounding     generic.Rounding
	accumulation generic.Accumulation
}

func newLedger(rounding generic.Rounding, accumulation generic.Accumulation) *Ledger {
	return &Ledger{
		index:        make(map[ShiftKey]int),
		rounding:     rounding,
		accumulation: accumulation,
	}
}

// open adds a zero entry for s. Returns false if the shift is already present.
func (l *Ledger) open(s Shift) bool {
	k := s.Key()
	if _, ok := l.index[k]; ok {
		return false
	}
	l.index[k] = len(l.entries)
	l.entries = append(l.entries, Entry{Shift: s, Tips: decimal.Zero})
	return true
}

// credit adds share to the entry at i. In per-step mode the running total
// is rounded to cents after every increment.
func (l *Ledger) credit(i int, share decimal.Decimal) {
	e := &l.entries[i]
	e.Tips = e.Tips.Add(share)
	if l.accumulation != generic.AccumulateDeferred {
		e.Tips = l.rounding.Cents(e.Tips)
	}
	e.Shares++
}

func (l *Ledger) finalize() {
	if l.accumulation != generic.AccumulateDeferred {
		return
	}
	for i := range l.entries {
		l.entries[i].Tips = l.rounding.Cents(l.entries[i].Tips)
	}
}

// Len returns the number of shifts in the ledger.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns a copy of all entries in the order shifts were supplied.
func (l *Ledger) Entries() []Entry {
	if l == nil {
		return nil
	}
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Tips returns the amount allocated to the shift with key k.
func (l *Ledger) Tips(k ShiftKey) (decimal.Decimal, bool) {
	if l == nil {
		return decimal.Zero, false
	}
	i, ok := l.index[k]
	if !ok {
		return decimal.Zero, false
	}
	return l.entries[i].Tips, true
}

// Total returns the sum of every entry.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	if l == nil {
		return total
	}
	for _, e := range l.entries {
		total = total.Add(e.Tips)
	}
	return total
}

// Unattributed returns tips that no closed shift overlapped, in input order.
func (l *Ledger) Unattributed() []TipEvent {
	if l == nil {
		return nil
	}
	return append([]TipEvent(nil), l.unattributed...)
}

// UnattributedTotal returns the sum of unattributed tips.
func (l *Ledger) UnattributedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, t := range l.Unattributed() {
		total = total.Add(t.Amount)
	}
	return total
}

// Skipped returns shifts excluded from the pass: open shifts and shifts
// without a usable clock-in.
func (l *Ledger) Skipped() []Shift {
	if l == nil {
		return nil
	}
	return append([]Shift(nil), l.skipped...)
}

func (l *Ledger) Rounding() generic.Rounding         { return l.rounding }
func (l *Ledger) Accumulation() generic.Accumulation { return l.accumulation }

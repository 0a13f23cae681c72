package tips

import (
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/tip-engine/generic"
)

// =============================================================================
// ALLOCATOR - Splits each tip among the shifts active at its instant
// =============================================================================

// Allocator runs allocation passes. The zero value is usable: it rounds half
// away from zero, accumulates per step and discards diagnostics.
//
// ALGORITHM:
//  1. One zero entry per closed shift. Open shifts are logged and skipped.
//  2. For each tip, in input order, collect the closed shifts whose
//     [ClockIn, ClockOut] contains the tip instant (inclusive).
//  3. No overlap: log payment id, time and amount; record it unattributed.
//  4. Otherwise share = round(amount / count, 2) and every overlapping
//     entry is credited with share.
//
// An Allocator holds no state between passes and may be shared.
type Allocator struct {
	Logger       *slog.Logger
	Rounding     generic.Rounding
	Accumulation generic.Accumulation
}

// Allocate runs one pass with the default options.
func Allocate(tips []TipEvent, shifts []Shift) *Ledger {
	return (&Allocator{}).Allocate(tips, shifts)
}

func (a *Allocator) Allocate(tips []TipEvent, shifts []Shift) *Ledger {
	log := a.logger()
	ledger := newLedger(a.rounding(), a.accumulation())

	for _, s := range shifts {
		switch {
		case s.ClockOut.IsZero():
			log.Warn("skipping shift with missing clock-out",
				"employee", s.Name(), "timecard_id", s.SourceID)
			ledger.skipped = append(ledger.skipped, s)
		case !s.Closed():
			log.Warn("skipping shift with missing or inverted clock-in",
				"employee", s.Name(), "timecard_id", s.SourceID)
			ledger.skipped = append(ledger.skipped, s)
		default:
			if !ledger.open(s) {
				log.Debug("duplicate shift collapsed", "employee", s.Name(), "timecard_id", s.SourceID)
			}
		}
	}

	idx := newShiftIndex(ledger.entries)
	var overlapping []int

	for _, tip := range tips {
		if tip.Amount.IsNegative() {
			log.Warn("skipping tip with negative amount",
				"payment_id", tip.PaymentID, "amount", tip.Amount.String())
			continue
		}

		overlapping = idx.covering(tip.ReceivedAt, overlapping[:0])
		if len(overlapping) == 0 {
			log.Warn("no workers clocked in at the time of tip",
				"payment_id", tip.PaymentID,
				"received_at", tip.ReceivedAt.Format(time.RFC3339),
				"amount", generic.FormatDollars(tip.Amount))
			ledger.unattributed = append(ledger.unattributed, tip)
			continue
		}

		share := a.share(tip.Amount, len(overlapping))
		for _, i := range overlapping {
			ledger.credit(i, share)
		}
	}

	ledger.finalize()
	return ledger
}

// share is the part of amount each of count shifts receives. In deferred
// mode it is left at full precision and rounded once on finalize.
func (a *Allocator) share(amount decimal.Decimal, count int) decimal.Decimal {
	perWorker := amount.Div(decimal.NewFromInt(int64(count)))
	if a.accumulation() == generic.AccumulateDeferred {
		return perWorker
	}
	return a.rounding().Cents(perWorker)
}

func (a *Allocator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a.Logger
}

func (a *Allocator) rounding() generic.Rounding {
	if a.Rounding.Valid() {
		return a.Rounding
	}
	return generic.RoundHalfAwayFromZero
}

func (a *Allocator) accumulation() generic.Accumulation {
	if a.Accumulation.Valid() {
		return a.Accumulation
	}
	return generic.AccumulatePerStep
}

// =============================================================================
// SHIFT INDEX - Ledger positions ordered by clock-in
// =============================================================================

type shiftIndex struct {
	entries []Entry
	order   []int // ledger positions sorted by ClockIn
}

func newShiftIndex(entries []Entry) shiftIndex {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return entries[order[i]].Shift.ClockIn.Before(entries[order[j]].Shift.ClockIn)
	})
	return shiftIndex{entries: entries, order: order}
}

// covering appends to dst the ledger positions of shifts containing t, in
// ledger order.
func (x shiftIndex) covering(t time.Time, dst []int) []int {
	// Shifts starting after t cannot contain it.
	n := sort.Search(len(x.order), func(i int) bool {
		return x.entries[x.order[i]].Shift.ClockIn.After(t)
	})
	for _, i := range x.order[:n] {
		if x.entries[i].Shift.Covers(t) {
			dst = append(dst, i)
		}
	}
	sort.Ints(dst)
	return dst
}

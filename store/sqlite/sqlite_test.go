package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/report"
	"github.com/warp/tip-engine/statement"
	"github.com/warp/tip-engine/store/sqlite"
	"github.com/warp/tip-engine/tips"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var mst = time.FixedZone("MST", -7*60*60)

func at(day, hour int) time.Time { return time.Date(2024, time.July, day, hour, 0, 0, 0, mst) }

func period(start, end int) generic.Period {
	return generic.Period{Start: generic.NewDate(2024, time.July, start), End: generic.NewDate(2024, time.July, end)}
}

func sampleStatement(p generic.Period) *statement.Statement {
	svc := &statement.Service{BusinessName: "PLUS COFFEE"}
	return svc.Build(p, []tips.Shift{
		{FirstName: "Ann", LastName: "Lee", EmployeeID: "7", Wage: decimal.NewFromInt(15), ClockIn: at(22, 9), ClockOut: at(22, 13), SourceID: "tc-a"},
		{FirstName: "Ben", LastName: "Ode", Wage: decimal.NewFromInt(18), ClockIn: at(22, 11), ClockOut: at(22, 15), SourceID: "tc-b"},
	}, []tips.TipEvent{
		{PaymentID: "p-1", ReceivedAt: at(22, 12), Amount: decimal.RequireFromString("10.00")},
		{PaymentID: "p-2", ReceivedAt: at(22, 20), Amount: decimal.RequireFromString("2.50")},
	})
}

// =============================================================================
// ARCHIVE TESTS
// =============================================================================

func TestSaveStatement_RoundTripsHeaderAndRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	st := sampleStatement(period(21, 27))

	require.NoError(t, store.SaveStatement(ctx, st))

	rec, err := store.GetStatement(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.Period, rec.Period)
	assert.Equal(t, generic.RoundHalfAwayFromZero, rec.Rounding)
	assert.Equal(t, generic.AccumulatePerStep, rec.Accumulation)
	assert.True(t, rec.TotalTips.Equal(decimal.NewFromInt(10)))
	assert.True(t, rec.UnattributedTotal.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, st.Filename(), rec.Filename())

	rows, err := store.StatementRows(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Records(st.Rows), report.Records(rows), "archived rows render identically")
	assert.Equal(t, "7", rows[0].EmployeeID)

	unattributed, err := store.UnattributedTips(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, unattributed, 1)
	assert.Equal(t, "p-2", unattributed[0].PaymentID)
}

func TestGetStatement_NotFound(t *testing.T) {
	_, err := newTestStore(t).GetStatement(context.Background(), "missing")
	assert.ErrorIs(t, err, generic.ErrStatementNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestListStatements_NewestPeriodFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	older := sampleStatement(period(7, 13))
	newer := sampleStatement(period(21, 27))
	require.NoError(t, store.SaveStatement(ctx, older))
	require.NoError(t, store.SaveStatement(ctx, newer))

	all, err := store.ListStatements(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)

	limited, err := store.ListStatements(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestHasStatementForPeriod(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveStatement(ctx, sampleStatement(period(21, 27))))

	ok, err := store.HasStatementForPeriod(ctx, period(21, 27))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HasStatementForPeriod(ctx, period(7, 13))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteStatement_RemovesRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	st := sampleStatement(period(21, 27))
	require.NoError(t, store.SaveStatement(ctx, st))

	require.NoError(t, store.DeleteStatement(ctx, st.ID))

	rows, err := store.StatementRows(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.ErrorIs(t, store.DeleteStatement(ctx, st.ID), generic.ErrStatementNotFound)
}

func TestSaveStatement_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	st := sampleStatement(period(21, 27))
	require.NoError(t, store.SaveStatement(ctx, st))

	assert.Error(t, store.SaveStatement(ctx, st))
}

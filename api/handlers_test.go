/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Stateless allocation (POST /api/allocations)
- Statement generation, archive reads and CSV download
- Pay period calendar
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/statement"
	"github.com/warp/tip-engine/store/sqlite"
	"github.com/warp/tip-engine/tips"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var mst = time.FixedZone("MST", -7*60*60)

type fakeShifts struct {
	shifts []tips.Shift
	err    error
}

func (f *fakeShifts) Shifts(context.Context, generic.Period) ([]tips.Shift, error) {
	return f.shifts, f.err
}

type fakeTips struct {
	events []tips.TipEvent
	err    error
	calls  int
}

func (f *fakeTips) Tips(context.Context, generic.Period) ([]tips.TipEvent, int, error) {
	f.calls++
	return f.events, len(f.events), f.err
}

func at(hour int) time.Time { return time.Date(2024, time.July, 22, hour, 0, 0, 0, mst) }

type testEnv struct {
	handler *Handler
	router  http.Handler
	shifts  *fakeShifts
	tips    *fakeTips
}

// newTestEnv wires a handler against an in-memory archive. "Today" is
// 2024-08-05, so the last completed period is 2024-07-21 to 2024-08-03.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	shifts := &fakeShifts{shifts: []tips.Shift{
		{FirstName: "Ann", LastName: "Lee", Wage: decimal.NewFromInt(15), ClockIn: at(9), ClockOut: at(13), SourceID: "tc-a"},
		{FirstName: "Ben", LastName: "Ode", Wage: decimal.NewFromInt(18), ClockIn: at(11), ClockOut: at(15), SourceID: "tc-b"},
	}}
	tipSource := &fakeTips{events: []tips.TipEvent{
		{PaymentID: "p-1", ReceivedAt: at(12), Amount: decimal.NewFromInt(6)},
		{PaymentID: "p-2", ReceivedAt: at(20), Amount: decimal.NewFromInt(4)},
	}}

	svc := &statement.Service{Shifts: shifts, Tips: tipSource, BusinessName: "PLUS COFFEE"}
	h := NewHandler(svc, store, generic.PayPeriodConfig{Anchor: generic.NewDate(2024, time.July, 21), Length: 14}, mst, nil)
	h.Now = func() time.Time { return time.Date(2024, time.August, 5, 8, 0, 0, 0, mst) }

	return &testEnv{handler: h, router: NewRouter(h, []string{"http://localhost:5173"}), shifts: shifts, tips: tipSource}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func entryTips(t *testing.T, resp AllocationResponse, first string) decimal.Decimal {
	t.Helper()
	for _, e := range resp.Entries {
		if e.Shift.FirstName == first {
			return e.Tips
		}
	}
	t.Fatalf("no entry for %s", first)
	return decimal.Zero
}

const allocationBody = `{
	"shifts": [
		{"first_name": "A", "last_name": "X", "wage": "15.00", "clock_in": "2024-07-22T09:00:00-07:00", "clock_out": "2024-07-22T13:00:00-07:00"},
		{"first_name": "B", "last_name": "Y", "wage": 18, "clock_in": "2024-07-22T11:00:00-07:00", "clock_out": "2024-07-22T15:00:00-07:00"},
		{"first_name": "C", "last_name": "Z", "wage": "12.00", "clock_in": "2024-07-22T10:00:00-07:00"}
	],
	"tips": [
		{"payment_id": "p-1", "received_at": "2024-07-22T10:00:00-07:00", "amount": "8.00"},
		{"payment_id": "p-2", "received_at": "2024-07-22T12:00:00-07:00", "amount": "6.00"},
		{"payment_id": "p-3", "received_at": "2024-07-22T14:00:00-07:00", "amount": 2},
		{"payment_id": "p-4", "received_at": "2024-07-22T20:00:00-07:00", "amount": "1.25"}
	]
}`

// =============================================================================
// ALLOCATION TESTS
// =============================================================================

func TestAllocate_SplitsTipsAmongActiveShifts(t *testing.T) {
	// GIVEN: Two overlapping closed shifts, one open shift and four tips
	env := newTestEnv(t)

	// WHEN: Posting them for allocation
	rec := env.do(t, http.MethodPost, "/api/allocations", allocationBody)

	// THEN: A gets 8 + 3 and B gets 3 + 2; the late tip is unattributed
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[AllocationResponse](t, rec)

	require.Len(t, resp.Entries, 2)
	assert.True(t, entryTips(t, resp, "A").Equal(decimal.NewFromInt(11)))
	assert.True(t, entryTips(t, resp, "B").Equal(decimal.NewFromInt(5)))
	assert.True(t, resp.TotalTips.Equal(decimal.NewFromInt(16)))

	require.Len(t, resp.Unattributed, 1)
	assert.Equal(t, "p-4", resp.Unattributed[0].PaymentID)
	assert.True(t, resp.UnattributedTotal.Equal(decimal.RequireFromString("1.25")))

	require.Len(t, resp.SkippedShifts, 1)
	assert.Equal(t, "C", resp.SkippedShifts[0].FirstName)

	// Two employees: shift, subtotal, separator, shift, subtotal
	require.Len(t, resp.Rows, 5)
	assert.Equal(t, []string{"shift", "subtotal", "separator", "shift", "subtotal"},
		[]string{resp.Rows[0].Kind, resp.Rows[1].Kind, resp.Rows[2].Kind, resp.Rows[3].Kind, resp.Rows[4].Kind})
	assert.Equal(t, string(generic.RoundHalfAwayFromZero), resp.Rounding)
}

func TestAllocate_AccumulationOverride(t *testing.T) {
	// GIVEN: One shift, one tip and explicit rounding and accumulation modes
	env := newTestEnv(t)
	body := `{
		"shifts": [{"first_name": "A", "last_name": "X", "wage": "10", "clock_in": "2024-07-22T09:00:00Z", "clock_out": "2024-07-22T10:00:00Z"}],
		"tips": [{"received_at": "2024-07-22T09:30:00Z", "amount": "1.00"}],
		"rounding": "half_even",
		"accumulation": "deferred"
	}`

	// WHEN: Posting with explicit modes
	rec := env.do(t, http.MethodPost, "/api/allocations", body)

	// THEN: The response reports the requested modes
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[AllocationResponse](t, rec)
	assert.Equal(t, string(generic.RoundHalfEven), resp.Rounding)
	assert.Equal(t, string(generic.AccumulateDeferred), resp.Accumulation)
	assert.True(t, resp.TotalTips.Equal(decimal.NewFromInt(1)))
}

func TestAllocate_EmptyBodyLists(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/allocations", `{"shifts": [], "tips": []}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[AllocationResponse](t, rec)
	assert.Empty(t, resp.Entries)
	assert.Empty(t, resp.Rows)
	assert.True(t, resp.TotalTips.IsZero())
}

func TestAllocate_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"shifts": [`},
		{"unknown rounding", `{"rounding": "up"}`},
		{"unknown accumulation", `{"accumulation": "weekly"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/allocations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// =============================================================================
// STATEMENT TESTS
// =============================================================================

func TestGenerateStatement_DefaultsToLastCompletedPeriod(t *testing.T) {
	// GIVEN: No dates in the request
	env := newTestEnv(t)

	// WHEN: Generating a statement
	rec := env.do(t, http.MethodPost, "/api/statements", "")

	// THEN: The last completed pay period is generated and archived
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[StatementDTO](t, rec)

	assert.Equal(t, "2024-07-21", dto.Period.Start)
	assert.Equal(t, "2024-08-03", dto.Period.End)
	assert.Equal(t, 14, dto.Period.Days)
	assert.Equal(t, "PLUS COFFEE Timecards 2024-07-21 to 2024-08-03.csv", dto.Filename)
	assert.Equal(t, 2, dto.Timecards)
	assert.True(t, dto.TotalTips.Equal(decimal.NewFromInt(6)))
	assert.Len(t, dto.Rows, 5)
	require.Len(t, dto.Unattributed, 1)
	assert.Equal(t, "p-2", dto.Unattributed[0].PaymentID)
}

func TestGenerateStatement_ExplicitPeriod(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/statements", `{"start": "2024-07-22", "end": "2024-07-22"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[StatementDTO](t, rec)
	assert.Equal(t, 1, dto.Period.Days)
}

func TestGenerateStatement_InvalidPeriod(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"end before start", `{"start": "2024-08-03", "end": "2024-07-21"}`},
		{"bad date", `{"start": "07/21/2024", "end": "2024-08-03"}`},
		{"missing end", `{"start": "2024-07-21"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/statements", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGenerateStatement_VendorFailureIsBadGateway(t *testing.T) {
	// GIVEN: The payment processor returns an error
	env := newTestEnv(t)
	env.tips.err = &generic.APIError{Service: "square", Op: "list payments", StatusCode: http.StatusUnauthorized}

	// WHEN: Generating a statement
	rec := env.do(t, http.MethodPost, "/api/statements", "")

	// THEN: 502 and nothing archived
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	list := decode[[]StatementSummaryDTO](t, env.do(t, http.MethodGet, "/api/statements", ""))
	assert.Empty(t, list)
}

func TestStatementReads(t *testing.T) {
	// GIVEN: One archived statement
	env := newTestEnv(t)
	created := decode[StatementDTO](t, env.do(t, http.MethodPost, "/api/statements", ""))

	t.Run("list", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/statements?limit=10", "")
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[[]StatementSummaryDTO](t, rec)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/statements?limit=ten", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/statements/"+created.ID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[StatementDTO](t, rec)
		want, err := json.Marshal(created.Rows)
		require.NoError(t, err)
		have, err := json.Marshal(got.Rows)
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(have))
	})

	t.Run("csv", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/statements/"+created.ID+"/csv", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), created.Filename)

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Equal(t, "First Name,Last Name,Credit Tips,Shift Start,Shift End,Shift Hours,Wage,Timecard ID,Earnings,Earnings with Tip", lines[0])
		assert.Len(t, lines, 6)
	})

	t.Run("not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/statements/nope", "").Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/statements/nope/csv", "").Code)
	})
}

// =============================================================================
// PAY PERIOD TESTS
// =============================================================================

func TestCurrentPayPeriod(t *testing.T) {
	env := newTestEnv(t)

	before := decode[PayPeriodsDTO](t, env.do(t, http.MethodGet, "/api/pay-periods/current", ""))
	assert.Equal(t, "2024-08-05", before.Today)
	assert.Equal(t, "2024-08-04", before.Current.Start)
	assert.Equal(t, "2024-08-17", before.Current.End)
	assert.Equal(t, "2024-07-21", before.LastCompleted.Start)
	assert.False(t, before.Archived)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/statements", "").Code)

	after := decode[PayPeriodsDTO](t, env.do(t, http.MethodGet, "/api/pay-periods/current", ""))
	assert.True(t, after.Archived)
}

func TestHealthz(t *testing.T) {
	rec := newTestEnv(t).do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

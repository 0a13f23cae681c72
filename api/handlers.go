/*
handlers.go - HTTP API handlers for the tip engine

PURPOSE:
  Exposes tip allocation and statement generation via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the tips,
  report and statement packages.

ENDPOINTS:
  Allocation:
    POST   /api/allocations             Allocate tips to shifts in the request body

  Statements:
    POST   /api/statements              Generate and archive a statement
    GET    /api/statements              List archived statements
    GET    /api/statements/{id}         Archived statement with rows
    GET    /api/statements/{id}/csv     Archived statement as CSV

  Pay periods:
    GET    /api/pay-periods/current     Current and last completed period

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Statement not found
  - 502: Scheduling or payment service failure
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Periodic statement generation
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/report"
	"github.com/warp/tip-engine/statement"
	"github.com/warp/tip-engine/store/sqlite"
	"github.com/warp/tip-engine/tips"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service    *statement.Service
	Store      *sqlite.Store
	PayPeriods generic.PayPeriodConfig
	Location   *time.Location
	Logger     *slog.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

// NewHandler creates a new handler.
func NewHandler(svc *statement.Service, store *sqlite.Store, periods generic.PayPeriodConfig, loc *time.Location, logger *slog.Logger) *Handler {
	return &Handler{
		Service:    svc,
		Store:      store,
		PayPeriods: periods,
		Location:   loc,
		Logger:     logger,
	}
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// Allocate runs one allocation pass over the shifts and tips in the body.
// No vendor is called and nothing is archived.
func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	allocator := &tips.Allocator{
		Logger:       h.logger(),
		Rounding:     h.Service.Rounding,
		Accumulation: h.Service.Accumulation,
	}
	if req.Rounding != "" {
		mode, err := generic.ParseRounding(req.Rounding)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rounding", err)
			return
		}
		allocator.Rounding = mode
	}
	if req.Accumulation != "" {
		mode, err := generic.ParseAccumulation(req.Accumulation)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid accumulation", err)
			return
		}
		allocator.Accumulation = mode
	}

	shifts := make([]tips.Shift, len(req.Shifts))
	for i, s := range req.Shifts {
		shifts[i] = s.toShift()
	}
	events := make([]tips.TipEvent, len(req.Tips))
	for i, t := range req.Tips {
		events[i] = t.toTipEvent()
	}

	ledger := allocator.Allocate(events, shifts)
	writeJSON(w, http.StatusOK, toAllocationResponse(ledger, report.Aggregate(ledger)))
}

// =============================================================================
// STATEMENT HANDLERS
// =============================================================================

// GenerateStatement fetches, allocates and archives one period.
func (h *Handler) GenerateStatement(w http.ResponseWriter, r *http.Request) {
	var req GenerateStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := h.requestedPeriod(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	st, err := h.GenerateAndArchive(r.Context(), period)
	if err != nil {
		writeError(w, statusFor(err), "Failed to generate statement", err)
		return
	}

	dto, err := h.loadStatement(r.Context(), st.ID)
	if err != nil {
		writeError(w, statusFor(err), "Failed to load statement", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// ListStatements returns archived statements, newest period first.
func (h *Handler) ListStatements(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	records, err := h.Store.ListStatements(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list statements", err)
		return
	}

	dtos := make([]StatementSummaryDTO, len(records))
	for i, rec := range records {
		dtos[i] = toStatementSummaryDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStatement returns an archived statement with its rows.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	dto, err := h.loadStatement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), "Failed to load statement", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// DownloadStatementCSV streams an archived statement in the payroll CSV layout.
func (h *Handler) DownloadStatementCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.Store.GetStatement(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), "Failed to load statement", err)
		return
	}
	rows, err := h.Store.StatementRows(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statement rows", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Filename()))
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, rows); err != nil {
		h.logger().Error("failed to write statement csv", "statement_id", id, "error", err)
	}
}

// =============================================================================
// PAY PERIOD HANDLERS
// =============================================================================

// CurrentPayPeriod reports the period containing today and the last
// completed one.
func (h *Handler) CurrentPayPeriod(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	last := h.PayPeriods.LastCompleted(today)

	archived, err := h.Store.HasStatementForPeriod(r.Context(), last)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check archive", err)
		return
	}

	writeJSON(w, http.StatusOK, PayPeriodsDTO{
		Today:         today.String(),
		Current:       toPeriodDTO(h.PayPeriods.PeriodFor(today)),
		LastCompleted: toPeriodDTO(last),
		Archived:      archived,
	})
}

// =============================================================================
// STATEMENT OPERATIONS
// =============================================================================

// GenerateAndArchive runs the batch for period and saves the result.
func (h *Handler) GenerateAndArchive(ctx context.Context, period generic.Period) (*statement.Statement, error) {
	st, err := h.Service.Generate(ctx, period)
	if err != nil {
		return nil, err
	}
	if err := h.Store.SaveStatement(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to archive statement: %w", err)
	}
	h.logger().Info("statement archived", "statement_id", st.ID, "period", period.String())
	return st, nil
}

func (h *Handler) requestedPeriod(req GenerateStatementRequest) (generic.Period, error) {
	if req.Start == "" && req.End == "" {
		return h.PayPeriods.LastCompleted(h.today()), nil
	}
	start, err := generic.ParseDate(req.Start)
	if err != nil {
		return generic.Period{}, err
	}
	end, err := generic.ParseDate(req.End)
	if err != nil {
		return generic.Period{}, err
	}
	period := generic.Period{Start: start, End: end}
	return period, period.Validate()
}

func (h *Handler) loadStatement(ctx context.Context, id string) (StatementDTO, error) {
	rec, err := h.Store.GetStatement(ctx, id)
	if err != nil {
		return StatementDTO{}, err
	}
	rows, err := h.Store.StatementRows(ctx, id)
	if err != nil {
		return StatementDTO{}, err
	}
	unattributed, err := h.Store.UnattributedTips(ctx, id)
	if err != nil {
		return StatementDTO{}, err
	}

	dto := StatementDTO{
		StatementSummaryDTO: toStatementSummaryDTO(*rec),
		Rows:                toRowDTOs(rows),
		Unattributed:        make([]TipDTO, len(unattributed)),
	}
	for i, t := range unattributed {
		dto.Unattributed[i] = TipDTO{PaymentID: t.PaymentID, ReceivedAt: t.ReceivedAt, Amount: t.Amount}
	}
	return dto, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) today() generic.Date {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	return generic.DateOf(now.In(loc))
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return h.Logger
}

func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsVendorError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

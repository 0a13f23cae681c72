/*
scheduler.go - Automated statement scheduler

PURPOSE:
  Generates and archives the statement of the last completed pay period on
  a cron schedule, so payroll finds it waiting after each period closes.

DESIGN:
  - robfig/cron runs the job in the business time zone
  - Each run targets PayPeriods.LastCompleted(today)
  - Periods that already have an archived statement are skipped
  - Panics inside a run are recovered and logged by the cron chain

CONFIGURATION:
  - STATEMENT_JOB_SCHEDULE: standard 5-field cron spec, e.g. "0 6 * * 0".
    Empty disables the scheduler.

USAGE:
  scheduler := NewStatementScheduler(handler, cfg.StatementJobSchedule, logger)
  if err := scheduler.Start(); err != nil { ... }
  // ... later
  <-scheduler.Stop().Done()

SEE ALSO:
  - handlers.go: GenerateAndArchive (shared with POST /api/statements)
  - generic/period.go: PayPeriodConfig
*/
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/tip-engine/statement"
)

// RunTimeout bounds one scheduled generation, vendor calls included.
const RunTimeout = 5 * time.Minute

// StatementScheduler handles automated statement generation.
type StatementScheduler struct {
	Handler  *Handler
	Schedule string

	logger *slog.Logger
	cron   *cron.Cron
	mu     sync.Mutex
}

// NewStatementScheduler creates a new scheduler. The cron runs in the
// handler's business location.
func NewStatementScheduler(h *Handler, schedule string, logger *slog.Logger) *StatementScheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &StatementScheduler{
		Handler:  h,
		Schedule: schedule,
		logger:   logger.With("component", "statement_scheduler"),
		cron:     c,
	}
}

// Start registers the job and starts the cron. An empty schedule leaves the
// scheduler disabled.
func (s *StatementScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Schedule == "" {
		s.logger.Info("statement scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.Schedule, s.run); err != nil {
		return fmt.Errorf("failed to schedule statement job %q: %w", s.Schedule, err)
	}
	s.cron.Start()
	s.logger.Info("scheduled statement job", "schedule", s.Schedule)
	return nil
}

// Stop stops the cron. The returned context is done when a running job
// has finished.
func (s *StatementScheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron.Stop()
}

func (s *StatementScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()

	if _, _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled statement failed", "error", err)
	}
}

// RunOnce generates the last completed pay period's statement unless one
// is already archived. The bool reports whether a statement was generated.
func (s *StatementScheduler) RunOnce(ctx context.Context) (*statement.Statement, bool, error) {
	period := s.Handler.PayPeriods.LastCompleted(s.Handler.today())
	log := s.logger.With("period", period.String())

	archived, err := s.Handler.Store.HasStatementForPeriod(ctx, period)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check archive: %w", err)
	}
	if archived {
		log.Info("statement already archived, skipping")
		return nil, false, nil
	}

	st, err := s.Handler.GenerateAndArchive(ctx, period)
	if err != nil {
		return nil, false, err
	}
	log.Info("scheduled statement generated", "statement_id", st.ID, "rows", len(st.Rows))
	return st, true, nil
}

/*
Package sqlite provides a SQLite-backed archive of generated statements.

PURPOSE:
  Every statement produced by the batch job or the HTTP API can be archived
  with its rows and unattributed tips, so payroll can pull an earlier pay
  period's figures without calling the vendors again.

  The archive is output only. Allocation never reads it: a statement is
  always recomputed from vendor data, never derived from an earlier one.

KEY TABLES:
  statements:        One row per generated statement (period, options, counts, totals)
  statement_rows:    Ordered report rows (detail, subtotal, separator)
  unattributed_tips: Tips no shift overlapped

INDEXES:
  - idx_statements_period: Lookup by pay period (scheduler de-duplication)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety across HTTP handlers and the scheduler.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./statements.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  err = store.SaveStatement(ctx, st)

SEE ALSO:
  - statement/statement.go: Statement type
  - api/handlers.go: Archive endpoints
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/report"
	"github.com/warp/tip-engine/statement"
)

// Store implements the statement archive using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS statements (
		id TEXT PRIMARY KEY,
		business_name TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		rounding TEXT NOT NULL,
		accumulation TEXT NOT NULL,
		timecards INTEGER NOT NULL DEFAULT 0,
		payments INTEGER NOT NULL DEFAULT 0,
		credit_tips INTEGER NOT NULL DEFAULT 0,
		total_tips TEXT NOT NULL,
		unattributed_total TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_statements_period
		ON statements(period_start, period_end);

	CREATE TABLE IF NOT EXISTS statement_rows (
		statement_id TEXT NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		employee_id TEXT,
		tips TEXT,
		hours TEXT,
		earnings TEXT,
		earnings_with_tip TEXT,
		shift_start TEXT,
		shift_end TEXT,
		wage TEXT,
		source_id TEXT,
		PRIMARY KEY (statement_id, position)
	);

	CREATE TABLE IF NOT EXISTS unattributed_tips (
		statement_id TEXT NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
		payment_id TEXT NOT NULL,
		received_at TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (statement_id, payment_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// StatementRecord is an archived statement header.
type StatementRecord struct {
	ID                string
	BusinessName      string
	Period            generic.Period
	Rounding          generic.Rounding
	Accumulation      generic.Accumulation
	Timecards         int
	Payments          int
	CreditTips        int
	TotalTips         decimal.Decimal
	UnattributedTotal decimal.Decimal
	GeneratedAt       time.Time
	CreatedAt         time.Time
}

// Filename matches statement.Statement.Filename.
func (r StatementRecord) Filename() string {
	return fmt.Sprintf("%s Timecards %s to %s.csv", r.BusinessName, r.Period.Start, r.Period.End)
}

// UnattributedTip is an archived tip no shift overlapped.
type UnattributedTip struct {
	PaymentID  string
	ReceivedAt time.Time
	Amount     decimal.Decimal
}

// =============================================================================
// WRITES
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveStatement archives st with its rows and unattributed tips atomically.
func (s *Store) SaveStatement(ctx context.Context, st *statement.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO statements
		(id, business_name, period_start, period_end, rounding, accumulation,
		 timecards, payments, credit_tips, total_tips, unattributed_total, generated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.ID,
		st.BusinessName,
		st.Period.Start.String(),
		st.Period.End.String(),
		string(st.Rounding),
		string(st.Accumulation),
		st.Timecards,
		st.Payments,
		st.CreditTips,
		st.TotalTips.String(),
		st.UnattributedTotal().String(),
		st.GeneratedAt.Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert statement: %w", err)
	}

	for i, r := range st.Rows {
		if err := insertRow(ctx, sqlTx, st.ID, i, r); err != nil {
			return err
		}
	}

	for _, t := range st.Unattributed {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT OR IGNORE INTO unattributed_tips (statement_id, payment_id, received_at, amount)
			VALUES (?, ?, ?, ?)
		`, st.ID, t.PaymentID, t.ReceivedAt.Format(time.RFC3339Nano), t.Amount.String())
		if err != nil {
			return fmt.Errorf("failed to insert unattributed tip: %w", err)
		}
	}

	return sqlTx.Commit()
}

func insertRow(ctx context.Context, db execer, statementID string, position int, r report.Row) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO statement_rows
		(statement_id, position, kind, first_name, last_name, employee_id,
		 tips, hours, earnings, earnings_with_tip, shift_start, shift_end, wage, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		statementID,
		position,
		r.Kind.String(),
		nullString(r.FirstName),
		nullString(r.LastName),
		nullString(r.EmployeeID),
		nullDecimal(r.Kind, r.Tips),
		nullDecimal(r.Kind, r.Hours),
		nullDecimal(r.Kind, r.Earnings),
		nullDecimal(r.Kind, r.EarningsWithTip),
		nullTime(r.Start),
		nullTime(r.End),
		nullDecimal(r.Kind, r.Wage),
		nullString(r.SourceID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert statement row: %w", err)
	}
	return nil
}

// DeleteStatement removes an archived statement and its rows.
func (s *Store) DeleteStatement(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM statements WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrStatementNotFound
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

const statementColumns = `id, business_name, period_start, period_end, rounding, accumulation,
	timecards, payments, credit_tips, total_tips, unattributed_total, generated_at, created_at`

// GetStatement returns an archived statement header.
func (s *Store) GetStatement(ctx context.Context, id string) (*StatementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+statementColumns+" FROM statements WHERE id = ?", id)
	rec, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrStatementNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListStatements returns archived statements, newest period first.
// A limit <= 0 returns all of them.
func (s *Store) ListStatements(ctx context.Context, limit int) ([]StatementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + statementColumns + " FROM statements ORDER BY period_start DESC, generated_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements: %w", err)
	}
	defer rows.Close()

	var out []StatementRecord
	for rows.Next() {
		rec, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// HasStatementForPeriod checks whether any statement covers exactly period.
func (s *Store) HasStatementForPeriod(ctx context.Context, period generic.Period) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM statements WHERE period_start = ? AND period_end = ?",
		period.Start.String(), period.End.String(),
	).Scan(&count)
	return count > 0, err
}

// StatementRows returns the archived rows of a statement in order.
func (s *Store) StatementRows(ctx context.Context, id string) ([]report.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, first_name, last_name, employee_id, tips, hours, earnings,
		       earnings_with_tip, shift_start, shift_end, wage, source_id
		FROM statement_rows
		WHERE statement_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement rows: %w", err)
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var (
			kind                                  string
			first, last, employeeID, sourceID     sql.NullString
			tipsV, hours, earnings, withTip, wage sql.NullString
			start, end                            sql.NullString
		)
		if err := rows.Scan(&kind, &first, &last, &employeeID, &tipsV, &hours, &earnings,
			&withTip, &start, &end, &wage, &sourceID); err != nil {
			return nil, err
		}
		out = append(out, report.Row{
			Kind:            parseKind(kind),
			FirstName:       first.String,
			LastName:        last.String,
			EmployeeID:      employeeID.String,
			Tips:            generic.MustParseDecimal(tipsV.String),
			Hours:           generic.MustParseDecimal(hours.String),
			Earnings:        generic.MustParseDecimal(earnings.String),
			EarningsWithTip: generic.MustParseDecimal(withTip.String),
			Start:           parseTime(start.String),
			End:             parseTime(end.String),
			Wage:            generic.MustParseDecimal(wage.String),
			SourceID:        sourceID.String,
		})
	}
	return out, rows.Err()
}

// UnattributedTips returns the archived tips no shift overlapped.
func (s *Store) UnattributedTips(ctx context.Context, id string) ([]UnattributedTip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT payment_id, received_at, amount FROM unattributed_tips
		WHERE statement_id = ? ORDER BY received_at ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnattributedTip
	for rows.Next() {
		var t UnattributedTip
		var receivedAt, amount string
		if err := rows.Scan(&t.PaymentID, &receivedAt, &amount); err != nil {
			return nil, err
		}
		t.ReceivedAt = parseTime(receivedAt)
		t.Amount = generic.MustParseDecimal(amount)
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStatement(row scanner) (*StatementRecord, error) {
	var (
		rec                                StatementRecord
		start, end, rounding, accumulation string
		totalTips, unattributed            string
		generatedAt, createdAt             string
	)
	if err := row.Scan(&rec.ID, &rec.BusinessName, &start, &end, &rounding, &accumulation,
		&rec.Timecards, &rec.Payments, &rec.CreditTips, &totalTips, &unattributed,
		&generatedAt, &createdAt); err != nil {
		return nil, err
	}
	rec.Period.Start, _ = generic.ParseDate(start)
	rec.Period.End, _ = generic.ParseDate(end)
	rec.Rounding = generic.Rounding(rounding)
	rec.Accumulation = generic.Accumulation(accumulation)
	rec.TotalTips = generic.MustParseDecimal(totalTips)
	rec.UnattributedTotal = generic.MustParseDecimal(unattributed)
	rec.GeneratedAt = parseTime(generatedAt)
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullDecimal stores nothing for separator rows.
func nullDecimal(kind report.RowKind, d decimal.Decimal) sql.NullString {
	if kind == report.RowSeparator {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseKind(s string) report.RowKind {
	switch strings.ToLower(s) {
	case "subtotal":
		return report.RowSubtotal
	case "separator":
		return report.RowSeparator
	}
	return report.RowShift
}

/*
main.go - Statement batch entry point

PURPOSE:
  Generates one tip statement from the command line: fetches timecards and
  payments, allocates credit tips, prints the console table and writes the
  payroll CSV. Optionally archives the statement.

COMMAND-LINE FLAGS:
  -start   First day of the period, YYYY-MM-DD
  -end     Last day of the period, YYYY-MM-DD
           Both omitted: the last completed pay period
  -out     Directory for the CSV (default: current directory)
  -db      SQLite archive path; empty skips archiving

EXAMPLES:
  ./tipreport -start=2024-07-21 -end=2024-08-03
  ./tipreport -db=statements.db

SEE ALSO:
  - statement/render.go: Summary and CSV output
  - app/app.go: Service assembly
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/warp/tip-engine/app"
	"github.com/warp/tip-engine/config"
	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/statement"
	"github.com/warp/tip-engine/store/sqlite"
)

func main() {
	start := flag.String("start", "", "first day of the period (YYYY-MM-DD)")
	end := flag.String("end", "", "last day of the period (YYYY-MM-DD)")
	out := flag.String("out", ".", "directory for the CSV")
	dbPath := flag.String("db", "", "SQLite archive path; empty skips archiving")
	flag.Parse()

	if err := run(*start, *end, *out, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "tipreport: %v\n", err)
		os.Exit(1)
	}
}

func run(start, end, out, dbPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	// Diagnostics go to stderr so stdout holds only the summary.
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)

	period, err := resolvePeriod(cfg, start, end)
	if err != nil {
		return err
	}

	svc, err := app.NewService(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := svc.Generate(ctx, period)
	if err != nil {
		return err
	}

	if err := statement.WriteSummary(os.Stdout, st); err != nil {
		return err
	}
	path, err := statement.WriteCSV(out, st)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", path)

	if dbPath == "" {
		return nil
	}
	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveStatement(ctx, st); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Archived statement %s\n", st.ID)
	return nil
}

func resolvePeriod(cfg *config.Config, start, end string) (generic.Period, error) {
	if start == "" && end == "" {
		loc, err := cfg.Location()
		if err != nil {
			return generic.Period{}, err
		}
		periods, err := cfg.PayPeriods()
		if err != nil {
			return generic.Period{}, err
		}
		return periods.LastCompleted(generic.Today(loc)), nil
	}

	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, fmt.Errorf("-start: %w", err)
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, fmt.Errorf("-end: %w", err)
	}
	p := generic.Period{Start: s, End: e}
	return p, p.Validate()
}

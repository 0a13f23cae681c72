/*
main.go - HTTP server entry point

PURPOSE:
  Starts the tip engine API: stateless allocations, statement generation
  against the scheduling and payment services, and the statement archive.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment, optional .env)
  2. Initialize SQLite statement archive
  3. Build vendor clients and the statement service
  4. Configure HTTP router
  5. Start the statement scheduler (if STATEMENT_JOB_SCHEDULE is set)
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler and wait for a running job
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

ENVIRONMENT:
  See config/config.go. "DB_PATH=:memory:" keeps the archive in memory.

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Statement scheduler
  - app/app.go: Service assembly
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/warp/tip-engine/api"
	"github.com/warp/tip-engine/app"
	"github.com/warp/tip-engine/config"
	"github.com/warp/tip-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc, err := app.NewService(cfg, logger)
	if err != nil {
		logger.Error("failed to build statement service", "error", err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()
	periods, _ := cfg.PayPeriods()

	handler := api.NewHandler(svc, store, periods, loc, logger)
	router := api.NewRouter(handler, cfg.AllowedOrigins())

	scheduler := api.NewStatementScheduler(handler, cfg.StatementJobSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start statement scheduler", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr, "business", cfg.BusinessName, "timezone", cfg.Timezone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		logger.Warn("statement job still running at shutdown")
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

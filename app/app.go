// Package app assembles the statement service and logger from configuration.
// Both binaries start here.
package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/warp/tip-engine/config"
	"github.com/warp/tip-engine/homebase"
	"github.com/warp/tip-engine/statement"
	"github.com/warp/tip-engine/square"
)

// NewLogger returns a JSON logger at the configured level. Unknown levels
// log at info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// NewService builds the statement service with live vendor clients. A vendor
// whose credentials are missing is replaced by a statement.Unavailable
// source, so callers that never generate statements still start.
func NewService(cfg *config.Config, logger *slog.Logger) (*statement.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	svc := &statement.Service{
		BusinessName: cfg.BusinessName,
		Rounding:     cfg.RoundingMode(),
		Accumulation: cfg.AccumulationMode(),
		Logger:       logger,
	}

	hb, err := homebase.NewClient(homebase.Options{
		BaseURL:      cfg.HomebaseBaseURL,
		APIKey:       cfg.HomebaseAPIKey,
		LocationUUID: cfg.HomebaseLocationUUID,
		Timeout:      cfg.HTTPTimeout,
		Location:     loc,
		Logger:       logger.With("service", "homebase"),
	})
	if err != nil {
		logger.Warn("homebase client unavailable", "error", err)
		svc.Shifts = statement.Unavailable{Err: err}
	} else {
		svc.Shifts = hb
	}

	sq, err := square.NewClient(square.Options{
		BaseURL:     cfg.SquareBaseURL,
		AccessToken: cfg.SquareAccessToken,
		Timeout:     cfg.HTTPTimeout,
		Location:    loc,
		Logger:      logger.With("service", "square"),
	})
	if err != nil {
		logger.Warn("square client unavailable", "error", err)
		svc.Tips = statement.Unavailable{Err: err}
	} else {
		svc.Tips = sq
	}

	return svc, nil
}

// Package config loads settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/warp/tip-engine/generic"
)

// Config holds all configuration for the tip engine binaries.
type Config struct {
	HomebaseAPIKey       string `mapstructure:"HOMEBASE_API_KEY"`
	HomebaseLocationUUID string `mapstructure:"HOMEBASE_LOCATION_UUID"`
	HomebaseBaseURL      string `mapstructure:"HOMEBASE_BASE_URL"`
	SquareAccessToken    string `mapstructure:"SQUARE_ACCESS_TOKEN"`
	SquareBaseURL        string `mapstructure:"SQUARE_BASE_URL"`

	BusinessName string `mapstructure:"BUSINESS_NAME"`
	Timezone     string `mapstructure:"TIMEZONE"`
	Rounding     string `mapstructure:"ROUNDING"`
	Accumulation string `mapstructure:"ACCUMULATION"`

	PayPeriodAnchor      string `mapstructure:"PAY_PERIOD_ANCHOR"`
	PayPeriodDays        int    `mapstructure:"PAY_PERIOD_DAYS"`
	StatementJobSchedule string `mapstructure:"STATEMENT_JOB_SCHEDULE"`

	DBPath      string        `mapstructure:"DB_PATH"`
	Port        int           `mapstructure:"PORT"`
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`

	// Comma-separated list.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var keys = []string{
	"HOMEBASE_API_KEY",
	"HOMEBASE_LOCATION_UUID",
	"HOMEBASE_BASE_URL",
	"SQUARE_ACCESS_TOKEN",
	"SQUARE_BASE_URL",
	"BUSINESS_NAME",
	"TIMEZONE",
	"ROUNDING",
	"ACCUMULATION",
	"PAY_PERIOD_ANCHOR",
	"PAY_PERIOD_DAYS",
	"STATEMENT_JOB_SCHEDULE",
	"DB_PATH",
	"PORT",
	"HTTP_TIMEOUT",
	"LOG_LEVEL",
	"CORS_ALLOWED_ORIGINS",
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present; real environment variables
// win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("HOMEBASE_BASE_URL", "https://api.joinhomebase.com")
	v.SetDefault("SQUARE_BASE_URL", "https://connect.squareup.com")
	v.SetDefault("BUSINESS_NAME", "PLUS COFFEE")
	v.SetDefault("TIMEZONE", "America/Phoenix")
	v.SetDefault("ROUNDING", string(generic.RoundHalfAwayFromZero))
	v.SetDefault("ACCUMULATION", string(generic.AccumulatePerStep))
	v.SetDefault("PAY_PERIOD_ANCHOR", "2024-07-21")
	v.SetDefault("PAY_PERIOD_DAYS", 14)
	v.SetDefault("STATEMENT_JOB_SCHEDULE", "")
	v.SetDefault("DB_PATH", "statements.db")
	v.SetDefault("PORT", 8080)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")
	v.AutomaticEnv()

	// Bind explicitly so every key appears in Unmarshal
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.PayPeriods(); err != nil {
		return nil, err
	}
	if _, err := generic.ParseRounding(cfg.Rounding); err != nil {
		return nil, err
	}
	if _, err := generic.ParseAccumulation(cfg.Accumulation); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing vendor credentials. Binaries that only serve
// archived statements or pure allocations can run without them.
func (c *Config) Validate() error {
	var missing []string
	if c.HomebaseAPIKey == "" {
		missing = append(missing, "HOMEBASE_API_KEY")
	}
	if c.HomebaseLocationUUID == "" {
		missing = append(missing, "HOMEBASE_LOCATION_UUID")
	}
	if c.SquareAccessToken == "" {
		missing = append(missing, "SQUARE_ACCESS_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", generic.ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Location returns the business time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// PayPeriods returns the pay period calculator.
func (c *Config) PayPeriods() (generic.PayPeriodConfig, error) {
	anchor, err := generic.ParseDate(c.PayPeriodAnchor)
	if err != nil {
		return generic.PayPeriodConfig{}, fmt.Errorf("invalid PAY_PERIOD_ANCHOR: %w", err)
	}
	pc := generic.PayPeriodConfig{Anchor: anchor, Length: c.PayPeriodDays}
	if err := pc.Validate(); err != nil {
		return generic.PayPeriodConfig{}, err
	}
	return pc, nil
}

// RoundingMode and AccumulationMode were validated by Load.
func (c *Config) RoundingMode() generic.Rounding {
	r, _ := generic.ParseRounding(c.Rounding)
	return r
}

func (c *Config) AccumulationMode() generic.Accumulation {
	a, _ := generic.ParseAccumulation(c.Accumulation)
	return a
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

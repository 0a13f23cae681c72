package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tip-engine/config"
	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/homebase"
	"github.com/warp/tip-engine/square"
)

func baseConfig() *config.Config {
	return &config.Config{
		BusinessName: "PLUS COFFEE",
		Timezone:     "America/Phoenix",
		Rounding:     "half_even",
		Accumulation: "deferred",
		HTTPTimeout:  5 * time.Second,
	}
}

func TestNewService_MissingCredentialsFailOnUse(t *testing.T) {
	// GIVEN: No vendor credentials
	var buf bytes.Buffer
	svc, err := NewService(baseConfig(), NewLogger(&buf, "warn"))
	require.NoError(t, err)

	// WHEN: Generating a statement
	_, err = svc.Generate(context.Background(), generic.Period{
		Start: generic.NewDate(2024, time.July, 21),
		End:   generic.NewDate(2024, time.August, 3),
	})

	// THEN: The missing credentials surface as a vendor error
	assert.ErrorIs(t, err, generic.ErrMissingCredentials)
	assert.Contains(t, buf.String(), "homebase client unavailable")
	assert.Equal(t, generic.RoundHalfEven, svc.Rounding)
	assert.Equal(t, generic.AccumulateDeferred, svc.Accumulation)
}

func TestNewService_WiresLiveClients(t *testing.T) {
	cfg := baseConfig()
	cfg.HomebaseAPIKey = "hb"
	cfg.HomebaseLocationUUID = "loc"
	cfg.SquareAccessToken = "sq"

	svc, err := NewService(cfg, NewLogger(&bytes.Buffer{}, "info"))
	require.NoError(t, err)

	assert.IsType(t, &homebase.Client{}, svc.Shifts)
	assert.IsType(t, &square.Client{}, svc.Tips)
}

func TestNewService_BadTimezone(t *testing.T) {
	cfg := baseConfig()
	cfg.Timezone = "Mars/Olympus"

	_, err := NewService(cfg, NewLogger(&bytes.Buffer{}, "info"))
	assert.Error(t, err)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.True(t, NewLogger(&buf, "loud").Enabled(context.Background(), 0))
}

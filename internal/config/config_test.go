package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-garage/internal/parking"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "HOURLY_RATE", "BILLING_MODE", "GARAGE_LAYOUT", "OTEL_SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5.0, cfg.HourlyRate)
	assert.Equal(t, parking.BillingHourOfDay, cfg.BillingMode)
	assert.Equal(t, [][]parking.SpotType{{parking.SpotSmall, parking.SpotMedium, parking.SpotLarge}}, cfg.Layout)
	assert.Equal(t, "parking-garage-service", cfg.OTelConfig.ServiceName)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HOURLY_RATE", "7.5")
	t.Setenv("BILLING_MODE", "elapsed")
	t.Setenv("GARAGE_LAYOUT", "s,s;l")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7.5, cfg.HourlyRate)
	assert.Equal(t, parking.BillingElapsed, cfg.BillingMode)
	assert.Len(t, cfg.Layout, 2)
}

func TestLoadRejectsBadRate(t *testing.T) {
	t.Setenv("HOURLY_RATE", "cheap")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadLayout(t *testing.T) {
	t.Setenv("GARAGE_LAYOUT", "small,huge")

	_, err := Load()
	assert.ErrorContains(t, err, "GARAGE_LAYOUT")
}

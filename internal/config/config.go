package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"parking-garage/internal/parking"
)

const DefaultLayout = "small,medium,large"

type Config struct {
	Port        string
	Environment string
	HourlyRate  float64
	BillingMode parking.BillingMode
	Layout      [][]parking.SpotType
	OTelConfig  OTelConfig
}

type OTelConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	rate, err := strconv.ParseFloat(getEnv("HOURLY_RATE", "5"), 64)
	if err != nil || rate < 0 {
		return nil, fmt.Errorf("invalid HOURLY_RATE %q", os.Getenv("HOURLY_RATE"))
	}

	mode, err := parking.ParseBillingMode(getEnv("BILLING_MODE", string(parking.BillingHourOfDay)))
	if err != nil {
		return nil, err
	}

	layout, err := parking.ParseLayout(getEnv("GARAGE_LAYOUT", DefaultLayout))
	if err != nil {
		return nil, fmt.Errorf("invalid GARAGE_LAYOUT: %w", err)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		HourlyRate:  rate,
		BillingMode: mode,
		Layout:      layout,
		OTelConfig: OTelConfig{
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "parking-garage-service"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

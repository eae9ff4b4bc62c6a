package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration for the drift scanner
type Config struct {
	// Prometheus
	PrometheusURL string

	// Storage
	StorageEnabled bool
	DatabaseURL    string

	// Engine
	MaxSamples          int
	MinSamplesForStable int
	DriftThresholdPct   float64

	// Watch mode
	ScanInterval time.Duration

	// Output
	OutputFormat string // text, json
	Verbose      bool
}

// NewConfig creates a new configuration with defaults, overridable via env
func NewConfig() *Config {
	return &Config{
		PrometheusURL:       getEnv("PROMETHEUS_URL", "http://localhost:9090"),
		StorageEnabled:      getEnvBool("STORAGE_ENABLED", false),
		DatabaseURL:         getEnv("DATABASE_URL", "host=localhost port=5432 user=driftuser password=devpassword dbname=driftengine sslmode=disable"),
		MaxSamples:          getEnvInt("MAX_SAMPLES", 1000),
		MinSamplesForStable: getEnvInt("MIN_SAMPLES_FOR_STABLE", 20),
		DriftThresholdPct:   getEnvFloat("DRIFT_THRESHOLD_PCT", 50.0),
		ScanInterval:        time.Duration(getEnvInt("SCAN_INTERVAL_SECONDS", 60)) * time.Second,
		OutputFormat:        "text",
		Verbose:             false,
	}
}

// UseSensitivePreset tightens detection for latency-critical fleets
func (c *Config) UseSensitivePreset() {
	c.DriftThresholdPct = 25.0
	c.MinSamplesForStable = 10
}

// UseRelaxedPreset loosens detection for bursty, batch-heavy fleets
func (c *Config) UseRelaxedPreset() {
	c.DriftThresholdPct = 100.0
	c.MinSamplesForStable = 30
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.StorageEnabled && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when storage is enabled")
	}
	if c.MaxSamples < 1 {
		return fmt.Errorf("max samples must be at least 1")
	}
	if c.MinSamplesForStable < 1 {
		return fmt.Errorf("min samples for stable must be at least 1")
	}
	if c.DriftThresholdPct <= 0 {
		return fmt.Errorf("drift threshold must be > 0")
	}
	if c.ScanInterval < time.Second {
		return fmt.Errorf("scan interval must be at least 1 second")
	}
	return nil
}

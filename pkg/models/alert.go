package models

import "time"

// Metric names used in drift alerts
const (
	MetricCPUPct      = "cpu_pct"
	MetricMemoryPct   = "memory_pct"
	MetricRequestRate = "request_rate"
)

// DriftAlert reports one metric deviating from its fingerprint baseline.
// Alerts are computed on demand and never stored by the engine.
type DriftAlert struct {
	ID            string
	Service       string
	Metric        string
	ExpectedValue float64 // fingerprint mean for the metric
	ObservedValue float64 // triggering sample's value
	DeviationPct  float64 // relative deviation, always >= 0
	Message       string
	DetectedAt    time.Time
}

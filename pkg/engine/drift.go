package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/opscart/workload-drift-engine/pkg/models"
)

// meanEpsilon floors the baseline mean in the deviation divisor so a
// near-zero baseline never divides by zero.
const meanEpsilon = 0.001

// CheckDrift compares the service's most recent sample against its current
// fingerprint baseline (which already includes that sample) and returns one
// alert per metric whose relative deviation exceeds the configured threshold.
//
// Unknown services and single-sample baselines return an empty slice: a
// baseline of one sample compared against itself is degenerate, not drift.
// CheckDrift never mutates engine state, so repeated calls over a fixed
// sample history are deterministic.
func (e *Engine) CheckDrift(service string) []models.DriftAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()

	alerts := []models.DriftAlert{}

	fp, ok := e.fingerprints[service]
	if !ok || fp.SampleCount < 2 {
		return alerts
	}

	var latest *models.WorkloadSample
	for i := len(e.samples) - 1; i >= 0; i-- {
		if e.samples[i].Service == service {
			latest = e.samples[i]
			break
		}
	}
	if latest == nil {
		return alerts
	}

	now := time.Now()
	checks := []struct {
		metric   string
		expected float64
		observed float64
	}{
		{models.MetricCPUPct, fp.CPUMean, latest.CPUPct},
		{models.MetricMemoryPct, fp.MemoryMean, latest.MemoryPct},
		{models.MetricRequestRate, fp.RequestRateMean, latest.RequestRate},
	}

	for _, c := range checks {
		deviation := deviationPct(c.expected, c.observed)
		if deviation <= e.cfg.DriftThresholdPct {
			continue
		}
		alerts = append(alerts, models.DriftAlert{
			ID:            uuid.New().String(),
			Service:       service,
			Metric:        c.metric,
			ExpectedValue: c.expected,
			ObservedValue: c.observed,
			DeviationPct:  deviation,
			Message: fmt.Sprintf("%s for %s deviates %.1f%% from baseline (expected %.2f, observed %.2f)",
				c.metric, service, deviation, c.expected, c.observed),
			DetectedAt: now,
		})
	}

	return alerts
}

// deviationPct returns the relative deviation of observed from expected as a
// percentage, floored by meanEpsilon to stay defined for zero baselines.
func deviationPct(expected, observed float64) float64 {
	return math.Abs(observed-expected) / math.Max(expected, meanEpsilon) * 100.0
}

package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/opscart/workload-drift-engine/pkg/models"
)

// recomputeLocked rebuilds the service's fingerprint aggregates from its full
// retained window. Called with the write lock held, after any change to the
// service's retained samples.
//
// Recomputing from the window (instead of streaming averages) keeps the mean
// exact under eviction: the fingerprint always equals the arithmetic mean of
// the samples currently retained. O(window) per update, which is fine given
// MaxSamples is small and bounded.
func (e *Engine) recomputeLocked(service string) {
	var window []*models.WorkloadSample
	for _, s := range e.samples {
		if s.Service == service {
			window = append(window, s)
		}
	}

	// No retained samples means no fingerprint. This is what makes a
	// cleared or fully evicted service report not-found.
	if len(window) == 0 {
		delete(e.fingerprints, service)
		return
	}

	fp, ok := e.fingerprints[service]
	if !ok {
		fp = &models.WorkloadFingerprint{
			ID:           uuid.New().String(),
			Service:      service,
			WorkloadType: window[0].WorkloadType,
			Status:       models.StatusLearning,
			CreatedAt:    time.Now(),
		}
		e.fingerprints[service] = fp
	}

	cpu := make([]float64, len(window))
	mem := make([]float64, len(window))
	reqSum := 0.0
	for i, s := range window {
		cpu[i] = s.CPUPct
		mem[i] = s.MemoryPct
		reqSum += s.RequestRate
	}

	fp.SampleCount = len(window)
	fp.CPUMean = mean(cpu)
	fp.CPUStddev = stddev(cpu, fp.CPUMean)
	fp.MemoryMean = mean(mem)
	fp.MemoryStddev = stddev(mem, fp.MemoryMean)
	fp.RequestRateMean = reqSum / float64(len(window))

	// LEARNING -> STABLE fires the moment the window is large enough.
	// Status never regresses automatically: eviction can shrink the
	// window below the threshold without demoting a STABLE fingerprint.
	if fp.Status == models.StatusLearning && fp.SampleCount >= e.cfg.MinSamplesForStable {
		fp.Status = models.StatusStable
	}
}

// mean computes the arithmetic mean of values
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev computes the population standard deviation around a known mean
func stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquaredDiff := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)))
}

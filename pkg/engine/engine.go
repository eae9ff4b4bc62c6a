package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opscart/workload-drift-engine/pkg/models"
)

// Config holds the engine's tuning knobs. Immutable after New.
type Config struct {
	// MaxSamples bounds the global retained sample window across all
	// services. Oldest samples are evicted first, regardless of service.
	MaxSamples int

	// MinSamplesForStable is the retained-sample count at which a
	// fingerprint transitions LEARNING -> STABLE.
	MinSamplesForStable int

	// DriftThresholdPct is the relative deviation (percent) above which
	// CheckDrift emits an alert.
	DriftThresholdPct float64
}

// DefaultConfig returns the configuration used when callers pass a zero Config
func DefaultConfig() Config {
	return Config{
		MaxSamples:          1000,
		MinSamplesForStable: 20,
		DriftThresholdPct:   50.0,
	}
}

// Validate checks the configuration is usable
func (c Config) Validate() error {
	if c.MaxSamples < 1 {
		return fmt.Errorf("max samples must be at least 1, got %d", c.MaxSamples)
	}
	if c.MinSamplesForStable < 1 {
		return fmt.Errorf("min samples for stable must be at least 1, got %d", c.MinSamplesForStable)
	}
	if c.DriftThresholdPct <= 0 {
		return fmt.Errorf("drift threshold must be positive, got %.2f", c.DriftThresholdPct)
	}
	return nil
}

// Engine maintains per-service workload fingerprints over a globally bounded
// window of utilization samples. All state is in-memory and process-local.
//
// A single RWMutex guards both collections: RecordSample can evict another
// service's sample, so mutations must serialize across services, and readers
// must never observe a half-updated fingerprint.
type Engine struct {
	cfg Config

	mu           sync.RWMutex
	samples      []*models.WorkloadSample // global arrival order, oldest first
	fingerprints map[string]*models.WorkloadFingerprint
}

// New creates an engine. A zero Config is replaced with DefaultConfig;
// otherwise the Config must pass Validate.
func New(cfg Config) (*Engine, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &Engine{
		cfg:          cfg,
		fingerprints: make(map[string]*models.WorkloadFingerprint),
	}, nil
}

// Config returns the engine's immutable configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// SampleInput carries the fields of a new observation. Service is required;
// everything else defaults (numerics to 0, workload type to WEB_SERVER).
type SampleInput struct {
	Service      string
	WorkloadType models.WorkloadType
	CPUPct       float64
	MemoryPct    float64
	RequestRate  float64
	ErrorRate    float64
	LatencyP99Ms float64
	Metadata     map[string]string
}

// RecordSample ingests one observation. It always succeeds: missing numeric
// fields are zero and no validation is applied. The service's fingerprint is
// recomputed from its retained window, and if the global cap is exceeded the
// oldest retained sample (any service) is evicted, with the evicted owner's
// fingerprint recomputed or deleted.
func (e *Engine) RecordSample(in SampleInput) *models.WorkloadSample {
	wt := in.WorkloadType
	if wt == "" {
		wt = models.DefaultWorkloadType
	}

	var meta map[string]string
	if len(in.Metadata) > 0 {
		meta = make(map[string]string, len(in.Metadata))
		for k, v := range in.Metadata {
			meta[k] = v
		}
	}

	sample := &models.WorkloadSample{
		ID:           uuid.New().String(),
		Service:      in.Service,
		WorkloadType: wt,
		CPUPct:       in.CPUPct,
		MemoryPct:    in.MemoryPct,
		RequestRate:  in.RequestRate,
		ErrorRate:    in.ErrorRate,
		LatencyP99Ms: in.LatencyP99Ms,
		Metadata:     meta,
		Timestamp:    time.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.samples = append(e.samples, sample)

	// Global FIFO eviction: a high-volume service can crowd out a
	// low-volume service's retained history.
	for len(e.samples) > e.cfg.MaxSamples {
		evicted := e.samples[0]
		e.samples = e.samples[1:]
		if evicted.Service != sample.Service {
			e.recomputeLocked(evicted.Service)
		}
	}

	e.recomputeLocked(sample.Service)
	return sample
}

// GetFingerprint returns a snapshot of the service's fingerprint, or false
// if no retained samples exist for that service.
func (e *Engine) GetFingerprint(service string) (*models.WorkloadFingerprint, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	fp, ok := e.fingerprints[service]
	if !ok {
		return nil, false
	}
	return fp.Clone(), true
}

// ListFingerprints returns snapshots of all fingerprints, optionally filtered
// by status and/or workload type. Empty filter values match everything.
func (e *Engine) ListFingerprints(status models.FingerprintStatus, workloadType models.WorkloadType) []*models.WorkloadFingerprint {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.WorkloadFingerprint, 0, len(e.fingerprints))
	for _, fp := range e.fingerprints {
		if status != "" && fp.Status != status {
			continue
		}
		if workloadType != "" && fp.WorkloadType != workloadType {
			continue
		}
		out = append(out, fp.Clone())
	}
	return out
}

// SetWorkloadType reclassifies an existing fingerprint. It never creates one:
// a service with no retained samples reports false.
func (e *Engine) SetWorkloadType(service string, workloadType models.WorkloadType) (*models.WorkloadFingerprint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fp, ok := e.fingerprints[service]
	if !ok {
		return nil, false
	}
	fp.WorkloadType = workloadType
	return fp.Clone(), true
}

// MarkDrifted transitions a fingerprint to DRIFTED. Detection itself never
// mutates status; callers that want sticky drift state invoke this after
// acting on CheckDrift output. The transition does not regress the
// fingerprint to LEARNING and does not stop further drift checks.
func (e *Engine) MarkDrifted(service string) (*models.WorkloadFingerprint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fp, ok := e.fingerprints[service]
	if !ok {
		return nil, false
	}
	fp.Status = models.StatusDrifted
	return fp.Clone(), true
}

// GetSamples returns the service's retained samples, most recent first.
// A limit <= 0 means no cap.
func (e *Engine) GetSamples(service string, limit int) []*models.WorkloadSample {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []*models.WorkloadSample
	for i := len(e.samples) - 1; i >= 0; i-- {
		if e.samples[i].Service != service {
			continue
		}
		out = append(out, e.samples[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// ClearSamples drops every retained sample for the service and deletes its
// fingerprint, returning how many samples were removed. The service restarts
// at LEARNING if it is ever sampled again.
func (e *Engine) ClearSamples(service string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.samples[:0]
	removed := 0
	for _, s := range e.samples {
		if s.Service == service {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	e.samples = kept
	delete(e.fingerprints, service)
	return removed
}

// Stats summarizes the engine population. AvgCPU and AvgMemory are means of
// fingerprint means, so a chatty service does not dominate the summary.
func (e *Engine) Stats() models.EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := models.EngineStats{
		TotalSamples:      len(e.samples),
		TotalFingerprints: len(e.fingerprints),
	}

	var cpuSum, memSum float64
	for _, fp := range e.fingerprints {
		switch fp.Status {
		case models.StatusStable:
			stats.StableCount++
		case models.StatusDrifted:
			stats.DriftedCount++
		case models.StatusLearning:
			stats.LearningCount++
		}
		cpuSum += fp.CPUMean
		memSum += fp.MemoryMean
	}

	if len(e.fingerprints) > 0 {
		stats.AvgCPU = cpuSum / float64(len(e.fingerprints))
		stats.AvgMemory = memSum / float64(len(e.fingerprints))
	}
	return stats
}

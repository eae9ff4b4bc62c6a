package models

import "time"

// FingerprintStatus represents the maturity of a learned baseline
type FingerprintStatus string

const (
	StatusLearning FingerprintStatus = "LEARNING"
	StatusStable   FingerprintStatus = "STABLE"
	StatusDrifted  FingerprintStatus = "DRIFTED"
	StatusUnknown  FingerprintStatus = "UNKNOWN"
)

// WorkloadFingerprint is the learned statistical baseline for one service,
// derived from that service's currently retained samples.
type WorkloadFingerprint struct {
	ID           string
	Service      string
	WorkloadType WorkloadType
	Status       FingerprintStatus

	// SampleCount is the number of retained samples contributing to the
	// baseline, not a lifetime counter. It decreases under eviction.
	SampleCount int

	CPUMean         float64
	CPUStddev       float64
	MemoryMean      float64
	MemoryStddev    float64
	RequestRateMean float64

	CreatedAt time.Time
}

// Clone returns a copy safe to hand to callers while the engine keeps
// mutating the original.
func (f *WorkloadFingerprint) Clone() *WorkloadFingerprint {
	c := *f
	return &c
}

// EngineStats summarizes the engine's current population for dashboards
type EngineStats struct {
	TotalSamples      int
	TotalFingerprints int
	StableCount       int
	DriftedCount      int
	LearningCount     int

	// AvgCPU and AvgMemory are means of fingerprint means, not flat
	// means over raw samples.
	AvgCPU    float64
	AvgMemory float64
}

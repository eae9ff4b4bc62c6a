package models

import "time"

// WorkloadType classifies the kind of service being fingerprinted
type WorkloadType string

const (
	WorkloadWebServer    WorkloadType = "WEB_SERVER"
	WorkloadAPIGateway   WorkloadType = "API_GATEWAY"
	WorkloadBatchJob     WorkloadType = "BATCH_JOB"
	WorkloadDatabase     WorkloadType = "DATABASE"
	WorkloadCache        WorkloadType = "CACHE"
	WorkloadMessageQueue WorkloadType = "MESSAGE_QUEUE"
	WorkloadWorker       WorkloadType = "WORKER"
	WorkloadUnknown      WorkloadType = "UNKNOWN"
)

// DefaultWorkloadType is assumed when a sample arrives without a type
const DefaultWorkloadType = WorkloadWebServer

// WorkloadSample represents a single utilization observation for a service.
// Samples are immutable once recorded.
type WorkloadSample struct {
	ID           string
	Service      string
	WorkloadType WorkloadType

	// Utilization metrics
	CPUPct       float64 // percentage of requested CPU
	MemoryPct    float64 // percentage of requested memory
	RequestRate  float64 // requests per second
	ErrorRate    float64 // errors per second
	LatencyP99Ms float64

	Metadata  map[string]string
	Timestamp time.Time
}

package engine

import "github.com/opscart/workload-drift-engine/pkg/models"

// WorkloadProfile holds per-workload-type tuning for drift handling
type WorkloadProfile struct {
	ThresholdMultiplier float64 // scales the advisor's severity cutoffs
	MinWindow           int     // samples needed before advice is trusted
	Description         string
	AlertingEnabled     bool
}

// GetWorkloadProfile returns tuning for a given workload type
func GetWorkloadProfile(workloadType models.WorkloadType) WorkloadProfile {
	profiles := map[models.WorkloadType]WorkloadProfile{
		models.WorkloadWebServer: {
			ThresholdMultiplier: 1.0,
			MinWindow:           5,
			Description:         "Request-driven web service",
			AlertingEnabled:     true,
		},
		models.WorkloadAPIGateway: {
			ThresholdMultiplier: 1.0,
			MinWindow:           5,
			Description:         "Edge gateway, traffic-sensitive",
			AlertingEnabled:     true,
		},
		models.WorkloadBatchJob: {
			ThresholdMultiplier: 2.0,
			MinWindow:           10,
			Description:         "Batch workload, bursty between runs",
			AlertingEnabled:     false,
		},
		models.WorkloadDatabase: {
			ThresholdMultiplier: 1.2,
			MinWindow:           10,
			Description:         "Stateful datastore",
			AlertingEnabled:     true,
		},
		models.WorkloadCache: {
			ThresholdMultiplier: 1.5,
			MinWindow:           5,
			Description:         "In-memory cache, memory-dominant",
			AlertingEnabled:     true,
		},
		models.WorkloadMessageQueue: {
			ThresholdMultiplier: 1.5,
			MinWindow:           10,
			Description:         "Broker, depth-driven resource swings",
			AlertingEnabled:     true,
		},
		models.WorkloadWorker: {
			ThresholdMultiplier: 1.8,
			MinWindow:           10,
			Description:         "Async consumer, load follows queue",
			AlertingEnabled:     true,
		},
	}

	if p, exists := profiles[workloadType]; exists {
		return p
	}

	// Unknown workloads get a conservative profile
	return WorkloadProfile{
		ThresholdMultiplier: 2.0,
		MinWindow:           10,
		Description:         "Unclassified workload",
		AlertingEnabled:     true,
	}
}

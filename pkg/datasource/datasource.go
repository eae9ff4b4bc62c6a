package datasource

import (
	"context"
	"time"

	"github.com/opscart/workload-drift-engine/pkg/engine"
)

// DataSource defines the interface for collecting utilization samples
type DataSource interface {
	// CollectSample fetches the current utilization observation for one
	// service in a namespace, ready to feed Engine.RecordSample.
	CollectSample(ctx context.Context, namespace, service string) (engine.SampleInput, error)

	// Backfill fetches a historical window of observations for a service
	// so a fresh engine can warm its learning window on startup.
	Backfill(ctx context.Context, namespace, service string, lookback time.Duration, step time.Duration) ([]engine.SampleInput, error)

	IsAvailable(ctx context.Context) bool
	Name() string
}

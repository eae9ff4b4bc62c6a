package storage

import (
	"context"
	"time"

	"github.com/opscart/workload-drift-engine/pkg/models"
)

// ScanEntry records one completed drift scan for auditing
type ScanEntry struct {
	ID          string
	Namespace   string
	SampleCount int
	AlertCount  int
	StartedAt   time.Time
	Duration    time.Duration
}

// Store defines the interface for persisting drift findings. Fingerprints
// themselves are memory-resident and never persisted; what is stored is the
// alert trail and the scan audit log.
type Store interface {
	SaveAlert(ctx context.Context, alert *models.DriftAlert) error
	ListAlerts(ctx context.Context, service string, limit int) ([]*models.DriftAlert, error)

	LogScan(ctx context.Context, entry *ScanEntry) error
	GetScanHistory(ctx context.Context, limit int) ([]*ScanEntry, error)

	Ping(ctx context.Context) error
	Close() error
}

package output

import (
	"github.com/opscart/workload-drift-engine/pkg/advisor"
	"github.com/opscart/workload-drift-engine/pkg/models"
)

// Handler defines the interface for displaying scan results
type Handler interface {
	DisplayFingerprints(fingerprints []*models.WorkloadFingerprint) error
	DisplayAdvice(advice []*advisor.Advice) error
	DisplaySummary(stats models.EngineStats) error
	Format() string
}

// NewHandler returns the handler for a format name ("text" or "json")
func NewHandler(format string) Handler {
	if format == "json" {
		return &JSONHandler{}
	}
	return &TextHandler{}
}

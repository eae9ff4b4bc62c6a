package output

import (
	"encoding/json"
	"os"

	"github.com/opscart/workload-drift-engine/pkg/advisor"
	"github.com/opscart/workload-drift-engine/pkg/models"
)

// JSONHandler prints machine-readable output to stdout
type JSONHandler struct{}

func (h *JSONHandler) Format() string { return "json" }

func (h *JSONHandler) DisplayFingerprints(fingerprints []*models.WorkloadFingerprint) error {
	return h.emit(map[string]interface{}{"fingerprints": fingerprints})
}

func (h *JSONHandler) DisplayAdvice(advice []*advisor.Advice) error {
	return h.emit(map[string]interface{}{"findings": advice})
}

func (h *JSONHandler) DisplaySummary(stats models.EngineStats) error {
	return h.emit(map[string]interface{}{"summary": stats})
}

func (h *JSONHandler) emit(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

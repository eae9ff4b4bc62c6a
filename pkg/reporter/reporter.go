package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/opscart/workload-drift-engine/pkg/advisor"
	"github.com/opscart/workload-drift-engine/pkg/models"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatMarkdown ReportFormat = "markdown"
	FormatCSV      ReportFormat = "csv"
)

// Report contains all data for generating drift reports
type Report struct {
	ClusterName  string
	Namespace    string
	GeneratedAt  time.Time
	Fingerprints []*models.WorkloadFingerprint
	Advice       []*advisor.Advice
	Stats        models.EngineStats
}

// Reporter generates drift scan reports
type Reporter struct {
	format ReportFormat
}

// New creates a new reporter
func New(format ReportFormat) *Reporter {
	return &Reporter{
		format: format,
	}
}

// Generate builds a report from the engine's current state
func (r *Reporter) Generate(clusterName, namespace string, fingerprints []*models.WorkloadFingerprint, advice []*advisor.Advice, stats models.EngineStats) *Report {
	return &Report{
		ClusterName:  clusterName,
		Namespace:    namespace,
		GeneratedAt:  time.Now(),
		Fingerprints: fingerprints,
		Advice:       advice,
		Stats:        stats,
	}
}

// Write renders the report in the reporter's format
func (r *Reporter) Write(report *Report, w io.Writer) error {
	switch r.format {
	case FormatCSV:
		return writeCSV(report, w)
	case FormatMarkdown:
		return writeMarkdown(report, w)
	default:
		return fmt.Errorf("unsupported report format: %s", r.format)
	}
}

func writeMarkdown(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "# Workload Drift Report\n\n")
	fmt.Fprintf(w, "- Cluster: %s\n", report.ClusterName)
	fmt.Fprintf(w, "- Namespace: %s\n", report.Namespace)
	fmt.Fprintf(w, "- Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Fingerprints | Samples | Stable | Learning | Drifted | Avg CPU %% | Avg Mem %% |\n")
	fmt.Fprintf(w, "|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(w, "| %d | %d | %d | %d | %d | %.1f | %.1f |\n\n",
		report.Stats.TotalFingerprints, report.Stats.TotalSamples,
		report.Stats.StableCount, report.Stats.LearningCount, report.Stats.DriftedCount,
		report.Stats.AvgCPU, report.Stats.AvgMemory)

	fmt.Fprintf(w, "## Fingerprints\n\n")
	fmt.Fprintf(w, "| Service | Type | Status | Samples | CPU mean | CPU stddev | Mem mean | Req rate |\n")
	fmt.Fprintf(w, "|---|---|---|---|---|---|---|---|\n")
	for _, fp := range report.Fingerprints {
		fmt.Fprintf(w, "| %s | %s | %s | %d | %.1f | %.1f | %.1f | %.1f |\n",
			fp.Service, fp.WorkloadType, fp.Status, fp.SampleCount,
			fp.CPUMean, fp.CPUStddev, fp.MemoryMean, fp.RequestRateMean)
	}
	fmt.Fprintln(w)

	if len(report.Advice) > 0 {
		fmt.Fprintf(w, "## Drift Findings\n\n")
		for _, adv := range report.Advice {
			fmt.Fprintf(w, "### %s (%s)\n\n", adv.Service, adv.Severity)
			fmt.Fprintf(w, "Suggested action: **%s** — %s\n\n", adv.Action, adv.Reason)
			for _, alert := range adv.Alerts {
				fmt.Fprintf(w, "- `%s`: expected %.2f, observed %.2f (%.1f%% deviation)\n",
					alert.Metric, alert.ExpectedValue, alert.ObservedValue, alert.DeviationPct)
			}
			fmt.Fprintln(w)
		}
	} else {
		fmt.Fprintf(w, "No drift detected.\n")
	}

	return nil
}

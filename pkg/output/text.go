package output

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/opscart/workload-drift-engine/pkg/advisor"
	"github.com/opscart/workload-drift-engine/pkg/models"
)

// TextHandler prints human-readable tables to stdout
type TextHandler struct{}

func (h *TextHandler) Format() string { return "text" }

func (h *TextHandler) DisplayFingerprints(fingerprints []*models.WorkloadFingerprint) error {
	if len(fingerprints) == 0 {
		fmt.Println("No fingerprints yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tTYPE\tSTATUS\tSAMPLES\tCPU MEAN\tCPU STDDEV\tMEM MEAN\tREQ RATE")
	for _, fp := range fingerprints {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f%%\t%.1f\t%.1f%%\t%.1f/s\n",
			fp.Service, fp.WorkloadType, fp.Status, fp.SampleCount,
			fp.CPUMean, fp.CPUStddev, fp.MemoryMean, fp.RequestRateMean)
	}
	return w.Flush()
}

func (h *TextHandler) DisplayAdvice(advice []*advisor.Advice) error {
	if len(advice) == 0 {
		fmt.Println("\nNo drift detected.")
		return nil
	}

	fmt.Printf("\nDrift findings (%d):\n", len(advice))
	for _, adv := range advice {
		fmt.Printf("\n  [%s] %s -> %s\n", adv.Severity, adv.Service, adv.Action)
		fmt.Printf("      %s\n", adv.Reason)
		for _, alert := range adv.Alerts {
			fmt.Printf("      %s: expected %.2f, observed %.2f (%.1f%% deviation)\n",
				alert.Metric, alert.ExpectedValue, alert.ObservedValue, alert.DeviationPct)
		}
	}
	return nil
}

func (h *TextHandler) DisplaySummary(stats models.EngineStats) error {
	fmt.Printf("\nSummary: %d fingerprint(s) over %d sample(s) | stable: %d, learning: %d, drifted: %d | avg cpu %.1f%%, avg mem %.1f%%\n",
		stats.TotalFingerprints, stats.TotalSamples,
		stats.StableCount, stats.LearningCount, stats.DriftedCount,
		stats.AvgCPU, stats.AvgMemory)
	return nil
}

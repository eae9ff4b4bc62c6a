package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// writeCSV renders the report as CSV: fingerprints, then findings, then summary
func writeCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	header := []string{
		"Service",
		"Type",
		"Status",
		"Samples",
		"CPU Mean (%)",
		"CPU Stddev",
		"Memory Mean (%)",
		"Memory Stddev",
		"Request Rate (rps)",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, fp := range report.Fingerprints {
		row := []string{
			fp.Service,
			string(fp.WorkloadType),
			string(fp.Status),
			fmt.Sprintf("%d", fp.SampleCount),
			fmt.Sprintf("%.2f", fp.CPUMean),
			fmt.Sprintf("%.2f", fp.CPUStddev),
			fmt.Sprintf("%.2f", fp.MemoryMean),
			fmt.Sprintf("%.2f", fp.MemoryStddev),
			fmt.Sprintf("%.2f", fp.RequestRateMean),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	if len(report.Advice) > 0 {
		w.Write([]string{}) // Empty row
		w.Write([]string{"DRIFT FINDINGS"})
		w.Write([]string{"Service", "Severity", "Action", "Metric", "Expected", "Observed", "Deviation (%)"})
		for _, adv := range report.Advice {
			for _, alert := range adv.Alerts {
				w.Write([]string{
					adv.Service,
					string(adv.Severity),
					string(adv.Action),
					alert.Metric,
					fmt.Sprintf("%.2f", alert.ExpectedValue),
					fmt.Sprintf("%.2f", alert.ObservedValue),
					fmt.Sprintf("%.2f", alert.DeviationPct),
				})
			}
		}
	}

	// Summary rows
	w.Write([]string{})
	w.Write([]string{"SUMMARY"})
	w.Write([]string{"Total Fingerprints", fmt.Sprintf("%d", report.Stats.TotalFingerprints)})
	w.Write([]string{"Total Samples", fmt.Sprintf("%d", report.Stats.TotalSamples)})
	w.Write([]string{"Stable", fmt.Sprintf("%d", report.Stats.StableCount)})
	w.Write([]string{"Learning", fmt.Sprintf("%d", report.Stats.LearningCount)})
	w.Write([]string{"Drifted", fmt.Sprintf("%d", report.Stats.DriftedCount)})

	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opscart/workload-drift-engine/pkg/advisor"
	"github.com/opscart/workload-drift-engine/pkg/collector"
	"github.com/opscart/workload-drift-engine/pkg/config"
	"github.com/opscart/workload-drift-engine/pkg/datasource"
	"github.com/opscart/workload-drift-engine/pkg/engine"
	"github.com/opscart/workload-drift-engine/pkg/output"
	"github.com/opscart/workload-drift-engine/pkg/reporter"
	"github.com/opscart/workload-drift-engine/pkg/storage"
)

var (
	// Scan flags
	namespace      string
	allNamespaces  bool
	outputFormat   string
	saveResults    bool
	usePrometheus  bool
	backfillHours  int
	sensitive      bool
	relaxed        bool
	verbose        bool
	generateReport bool
	reportFormat   string
	reportOutput   string

	// Watch flags
	intervalSeconds int

	// History flags
	historyService string
	historyLimit   int

	// Global config
	cfg   *config.Config
	store storage.Store
)

func logVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

func main() {
	cfg = config.NewConfig()

	var rootCmd = &cobra.Command{
		Use:   "drift-scan",
		Short: "Workload fingerprint and drift detection scanner",
		Long:  `Learn per-service utilization baselines from live cluster metrics and flag workloads that drift from their fingerprint.`,
		Run:   runScan,
	}

	rootCmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to scan")
	rootCmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "Scan all namespaces")
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	rootCmd.Flags().BoolVar(&saveResults, "save", false, "Save drift alerts to database")
	rootCmd.Flags().BoolVar(&usePrometheus, "use-prometheus", true, "Backfill baselines from Prometheus history (default: true)")
	rootCmd.Flags().IntVar(&backfillHours, "backfill-hours", 6, "Hours of Prometheus history to warm baselines with")
	rootCmd.Flags().BoolVar(&sensitive, "sensitive", false, "Tighter drift thresholds for latency-critical fleets")
	rootCmd.Flags().BoolVar(&relaxed, "relaxed", false, "Looser drift thresholds for bursty fleets")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&generateReport, "generate-report", false, "Write a drift report file")
	rootCmd.Flags().StringVar(&reportFormat, "report-format", "markdown", "Report format: markdown, csv")
	rootCmd.Flags().StringVar(&reportOutput, "report-output", "drift-report.md", "Output file for report")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously scan and accumulate baselines",
		Run:   runWatch,
	}
	watchCmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to watch")
	watchCmd.Flags().IntVar(&intervalSeconds, "interval", 0, "Seconds between scans (default from SCAN_INTERVAL_SECONDS)")
	watchCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	watchCmd.Flags().BoolVar(&saveResults, "save", false, "Save drift alerts to database")
	watchCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored drift alerts",
		Run:   runHistory,
	}
	historyCmd.Flags().StringVar(&historyService, "service", "", "Filter alerts by service")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum alerts to show")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildEngine() *engine.Engine {
	if sensitive {
		cfg.UseSensitivePreset()
	}
	if relaxed {
		cfg.UseRelaxedPreset()
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	eng, err := engine.New(engine.Config{
		MaxSamples:          cfg.MaxSamples,
		MinSamplesForStable: cfg.MinSamplesForStable,
		DriftThresholdPct:   cfg.DriftThresholdPct,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return eng
}

func initStorage() error {
	if !saveResults {
		return nil
	}
	var err error
	store, err = storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) {
	if namespace == "" && !allNamespaces {
		fmt.Fprintln(os.Stderr, "Error: either --namespace or --all-namespaces must be specified")
		os.Exit(1)
	}
	if outputFormat != "text" && outputFormat != "json" {
		fmt.Fprintln(os.Stderr, "Error: output must be text or json")
		os.Exit(1)
	}

	cfg.Verbose = verbose
	eng := buildEngine()

	if saveResults {
		if err := initStorage(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	if outputFormat == "text" {
		fmt.Println("[INFO] Workload drift scanner - starting scan")
		fmt.Printf("[INFO] Drift threshold: %.1f%%, stability window: %d samples\n",
			cfg.DriftThresholdPct, cfg.MinSamplesForStable)
	}

	coll, err := collector.New(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing collector: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if version, err := coll.ServerVersion(); err == nil && outputFormat == "text" {
		fmt.Printf("[INFO] Connected to cluster (version: %s)\n", version)
	}

	namespaces := []string{namespace}
	if allNamespaces {
		namespaces, err = coll.ListNamespaces(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing namespaces: %v\n", err)
			os.Exit(1)
		}
		if outputFormat == "text" {
			fmt.Printf("[INFO] Scanning %d namespaces\n", len(namespaces))
		}
	}

	// Prometheus history warms the learning window so a one-shot scan can
	// reach STABLE instead of reporting everything as LEARNING.
	var promDS *datasource.PrometheusSource
	if usePrometheus && cfg.PrometheusURL != "" {
		promDS, err = datasource.NewPrometheusSource(cfg.PrometheusURL, verbose)
		if err != nil || !promDS.IsAvailable(ctx) {
			if outputFormat == "text" {
				fmt.Println("[WARN] Prometheus not reachable, baselines start cold")
			}
			promDS = nil
		} else if outputFormat == "text" {
			fmt.Printf("[INFO] Using Prometheus at %s (%dh backfill)\n", cfg.PrometheusURL, backfillHours)
		}
	}

	started := time.Now()
	totalSamples := 0
	var allAdvice []*advisor.Advice

	for _, ns := range namespaces {
		n, advice, err := scanNamespace(ctx, eng, coll, promDS, ns)
		if err != nil {
			fmt.Printf("[WARN] Error scanning namespace %s: %v\n", ns, err)
			continue
		}
		totalSamples += n
		allAdvice = append(allAdvice, advice...)
	}

	displayResults(eng, allAdvice)

	if saveResults {
		persistResults(ctx, allAdvice, namespace, totalSamples, started)
	}

	if generateReport {
		writeReport(eng, allAdvice)
	}
}

// scanNamespace backfills, snapshots and drift-checks one namespace
func scanNamespace(ctx context.Context, eng *engine.Engine, coll *collector.Collector, promDS *datasource.PrometheusSource, ns string) (int, []*advisor.Advice, error) {
	usages, err := coll.CollectNamespace(ctx, ns)
	if err != nil {
		return 0, nil, err
	}

	if promDS != nil {
		lookback := time.Duration(backfillHours) * time.Hour
		for _, usage := range usages {
			inputs, err := promDS.Backfill(ctx, ns, usage.Service, lookback, 5*time.Minute)
			if err != nil {
				logVerbose("backfill failed for %s/%s: %v", ns, usage.Service, err)
				continue
			}
			for _, in := range inputs {
				in.WorkloadType = usage.WorkloadType
				eng.RecordSample(in)
			}
		}
	}

	samples, err := coll.FeedEngine(ctx, eng, ns)
	if err != nil {
		return 0, nil, err
	}

	adv := advisor.New()
	var found []*advisor.Advice
	for _, usage := range usages {
		alerts := eng.CheckDrift(usage.Service)
		if len(alerts) == 0 {
			continue
		}
		fp, ok := eng.GetFingerprint(usage.Service)
		if !ok {
			continue
		}
		if advice := adv.Advise(fp, alerts); advice != nil {
			found = append(found, advice)
		}
	}
	return samples, found, nil
}

func displayResults(eng *engine.Engine, advice []*advisor.Advice) {
	handler := output.NewHandler(outputFormat)

	fingerprints := eng.ListFingerprints("", "")
	if err := handler.DisplayFingerprints(fingerprints); err != nil {
		fmt.Printf("[WARN] Display error: %v\n", err)
	}
	if err := handler.DisplayAdvice(advice); err != nil {
		fmt.Printf("[WARN] Display error: %v\n", err)
	}
	if err := handler.DisplaySummary(eng.Stats()); err != nil {
		fmt.Printf("[WARN] Display error: %v\n", err)
	}
}

func persistResults(ctx context.Context, advice []*advisor.Advice, ns string, sampleCount int, started time.Time) {
	alertCount := 0
	for _, adv := range advice {
		for i := range adv.Alerts {
			if err := store.SaveAlert(ctx, &adv.Alerts[i]); err != nil {
				fmt.Printf("[WARN] Failed to save alert: %v\n", err)
				continue
			}
			alertCount++
		}
	}

	entry := &storage.ScanEntry{
		Namespace:   ns,
		SampleCount: sampleCount,
		AlertCount:  alertCount,
		StartedAt:   started,
		Duration:    time.Since(started),
	}
	if err := store.LogScan(ctx, entry); err != nil {
		fmt.Printf("[WARN] Failed to log scan: %v\n", err)
	} else if outputFormat == "text" {
		fmt.Printf("[INFO] Saved %d alert(s) to database\n", alertCount)
	}
}

func writeReport(eng *engine.Engine, advice []*advisor.Advice) {
	format := reporter.FormatMarkdown
	if reportFormat == "csv" {
		format = reporter.FormatCSV
	}

	rep := reporter.New(format)
	report := rep.Generate("", namespace, eng.ListFingerprints("", ""), advice, eng.Stats())

	f, err := os.Create(reportOutput)
	if err != nil {
		fmt.Printf("[WARN] Failed to create report file: %v\n", err)
		return
	}
	defer f.Close()

	if err := rep.Write(report, f); err != nil {
		fmt.Printf("[WARN] Failed to write report: %v\n", err)
		return
	}
	fmt.Printf("[INFO] Report written to %s\n", reportOutput)
}

func runWatch(cmd *cobra.Command, args []string) {
	if namespace == "" {
		fmt.Fprintln(os.Stderr, "Error: --namespace must be specified")
		os.Exit(1)
	}

	cfg.Verbose = verbose
	if intervalSeconds > 0 {
		cfg.ScanInterval = time.Duration(intervalSeconds) * time.Second
	}
	eng := buildEngine()

	if saveResults {
		if err := initStorage(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	coll, err := collector.New(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing collector: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("[INFO] Watching namespace %s every %s\n", namespace, cfg.ScanInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()

	adv := advisor.New()
	handler := output.NewHandler(outputFormat)

	scanOnce := func() {
		started := time.Now()
		n, err := coll.FeedEngine(ctx, eng, namespace)
		if err != nil {
			fmt.Printf("[WARN] Collection failed: %v\n", err)
			return
		}
		logVerbose("recorded %d sample(s)", n)

		var found []*advisor.Advice
		for _, fp := range eng.ListFingerprints("", "") {
			alerts := eng.CheckDrift(fp.Service)
			if len(alerts) == 0 {
				continue
			}
			if advice := adv.Advise(fp, alerts); advice != nil {
				found = append(found, advice)
			}
		}

		if len(found) > 0 {
			handler.DisplayAdvice(found)
			if saveResults {
				persistResults(ctx, found, namespace, n, started)
			}
		}
	}

	scanOnce()
	for {
		select {
		case <-ticker.C:
			scanOnce()
		case <-sigCh:
			fmt.Println("\n[INFO] Shutting down")
			handler.DisplayFingerprints(eng.ListFingerprints("", ""))
			handler.DisplaySummary(eng.Stats())
			return
		}
	}
}

func runHistory(cmd *cobra.Command, args []string) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	st, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	alerts, err := st.ListAlerts(ctx, historyService, historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing alerts: %v\n", err)
		os.Exit(1)
	}

	if len(alerts) == 0 {
		fmt.Println("No stored drift alerts.")
		return
	}

	fmt.Printf("Stored drift alerts (%d):\n", len(alerts))
	for _, a := range alerts {
		fmt.Printf("  %s  %-20s %-12s expected %.2f, observed %.2f (%.1f%%)\n",
			a.DetectedAt.Format(time.RFC3339), a.Service, a.Metric,
			a.ExpectedValue, a.ObservedValue, a.DeviationPct)
	}
}

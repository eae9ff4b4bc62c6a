package engine

import (
	"testing"

	"github.com/opscart/workload-drift-engine/pkg/models"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()

	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return eng
}

func TestRecordSampleBuildsFingerprint(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 100, MinSamplesForStable: 2, DriftThresholdPct: 50})

	eng.RecordSample(SampleInput{Service: "api", CPUPct: 10})
	eng.RecordSample(SampleInput{Service: "api", CPUPct: 30})

	fp, ok := eng.GetFingerprint("api")
	if !ok {
		t.Fatal("Expected fingerprint for api")
	}

	if fp.CPUMean != 20.0 {
		t.Errorf("Expected cpu mean 20.0, got %.2f", fp.CPUMean)
	}
	if fp.SampleCount != 2 {
		t.Errorf("Expected sample count 2, got %d", fp.SampleCount)
	}
	if fp.Status != models.StatusStable {
		t.Errorf("Expected STABLE at threshold, got %s", fp.Status)
	}
	if fp.WorkloadType != models.WorkloadWebServer {
		t.Errorf("Expected default workload type WEB_SERVER, got %s", fp.WorkloadType)
	}
}

func TestLifecycleThreshold(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 100, MinSamplesForStable: 3, DriftThresholdPct: 50})

	for i := 0; i < 2; i++ {
		eng.RecordSample(SampleInput{Service: "api", CPUPct: 10})
		fp, _ := eng.GetFingerprint("api")
		if fp.Status != models.StatusLearning {
			t.Fatalf("Expected LEARNING below threshold, got %s after %d samples", fp.Status, i+1)
		}
	}

	eng.RecordSample(SampleInput{Service: "api", CPUPct: 10})
	fp, _ := eng.GetFingerprint("api")
	if fp.Status != models.StatusStable {
		t.Errorf("Expected STABLE the instant count reaches threshold, got %s", fp.Status)
	}
}

func TestGlobalFIFOEviction(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 3, MinSamplesForStable: 10, DriftThresholdPct: 50})

	// Oldest sample belongs to "quiet"; the chatty service then fills the cap
	eng.RecordSample(SampleInput{Service: "quiet", CPUPct: 5})
	eng.RecordSample(SampleInput{Service: "chatty", CPUPct: 10})
	eng.RecordSample(SampleInput{Service: "chatty", CPUPct: 20})
	eng.RecordSample(SampleInput{Service: "chatty", CPUPct: 30})

	// quiet's only sample was evicted, so its fingerprint must be gone
	if _, ok := eng.GetFingerprint("quiet"); ok {
		t.Error("Expected quiet's fingerprint deleted after its last sample was evicted")
	}

	fp, ok := eng.GetFingerprint("chatty")
	if !ok {
		t.Fatal("Expected fingerprint for chatty")
	}
	if fp.SampleCount != 3 {
		t.Errorf("Expected chatty to retain 3 samples, got %d", fp.SampleCount)
	}

	stats := eng.Stats()
	if stats.TotalSamples != 3 {
		t.Errorf("Expected 3 retained samples globally, got %d", stats.TotalSamples)
	}
}

func TestEvictionShrinksSampleCount(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 3, MinSamplesForStable: 2, DriftThresholdPct: 50})

	eng.RecordSample(SampleInput{Service: "a", CPUPct: 10})
	eng.RecordSample(SampleInput{Service: "a", CPUPct: 20})
	eng.RecordSample(SampleInput{Service: "b", CPUPct: 50})

	// Fourth insert evicts a's oldest sample
	eng.RecordSample(SampleInput{Service: "b", CPUPct: 60})

	fp, ok := eng.GetFingerprint("a")
	if !ok {
		t.Fatal("Expected fingerprint for a")
	}
	if fp.SampleCount != 1 {
		t.Errorf("Expected sample count 1 after eviction, got %d", fp.SampleCount)
	}
	if fp.CPUMean != 20.0 {
		t.Errorf("Expected mean recomputed over survivors (20.0), got %.2f", fp.CPUMean)
	}
	// STABLE must not regress when eviction shrinks the window
	if fp.Status != models.StatusStable {
		t.Errorf("Expected status to stay STABLE after eviction, got %s", fp.Status)
	}
}

func TestClearSamples(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 100, MinSamplesForStable: 2, DriftThresholdPct: 50})

	eng.RecordSample(SampleInput{Service: "api", CPUPct: 10})
	eng.RecordSample(SampleInput{Service: "api", CPUPct: 30})
	eng.RecordSample(SampleInput{Service: "other", CPUPct: 99})

	removed := eng.ClearSamples("api")
	if removed != 2 {
		t.Errorf("Expected 2 samples removed, got %d", removed)
	}

	if _, ok := eng.GetFingerprint("api"); ok {
		t.Error("Expected api fingerprint deleted after clear")
	}

	// Other services are untouched
	if _, ok := eng.GetFingerprint("other"); !ok {
		t.Error("Expected other's fingerprint to survive")
	}

	// A fresh sample restarts the service at LEARNING
	eng.RecordSample(SampleInput{Service: "api", CPUPct: 10})
	fp, _ := eng.GetFingerprint("api")
	if fp.Status != models.StatusLearning {
		t.Errorf("Expected LEARNING after restart, got %s", fp.Status)
	}
}

func TestGetSamplesNewestFirst(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 100, MinSamplesForStable: 2, DriftThresholdPct: 50})

	eng.RecordSample(SampleInput{Service: "api", CPUPct: 1})
	eng.RecordSample(SampleInput{Service: "other", CPUPct: 50})
	eng.RecordSample(SampleInput{Service: "api", CPUPct: 2})
	eng.RecordSample(SampleInput{Service: "api", CPUPct: 3})

	samples := eng.GetSamples("api", 0)
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(samples))
	}
	if samples[0].CPUPct != 3 || samples[1].CPUPct != 2 || samples[2].CPUPct != 1 {
		t.Errorf("Expected newest-first ordering, got %.0f, %.0f, %.0f",
			samples[0].CPUPct, samples[1].CPUPct, samples[2].CPUPct)
	}

	limited := eng.GetSamples("api", 2)
	if len(limited) != 2 {
		t.Fatalf("Expected limit of 2 samples, got %d", len(limited))
	}
	if limited[0].CPUPct != 3 {
		t.Errorf("Expected newest sample first under limit, got %.0f", limited[0].CPUPct)
	}
}

func TestSetWorkloadType(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 100, MinSamplesForStable: 2, DriftThresholdPct: 50})

	if _, ok := eng.SetWorkloadType("ghost", models.WorkloadDatabase); ok {
		t.Error("Expected SetWorkloadType on unknown service to report not-found")
	}
	if _, ok := eng.GetFingerprint("ghost"); ok {
		t.Error("SetWorkloadType must never create a fingerprint")
	}

	eng.RecordSample(SampleInput{Service: "db", CPUPct: 10})
	fp, ok := eng.SetWorkloadType("db", models.WorkloadDatabase)
	if !ok {
		t.Fatal("Expected SetWorkloadType to succeed")
	}
	if fp.WorkloadType != models.WorkloadDatabase {
		t.Errorf("Expected DATABASE, got %s", fp.WorkloadType)
	}
}

func TestListFingerprintsFilters(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 100, MinSamplesForStable: 2, DriftThresholdPct: 50})

	eng.RecordSample(SampleInput{Service: "web", CPUPct: 10})
	eng.RecordSample(SampleInput{Service: "web", CPUPct: 10})
	eng.RecordSample(SampleInput{Service: "batch", WorkloadType: models.WorkloadBatchJob, CPUPct: 10})

	all := eng.ListFingerprints("", "")
	if len(all) != 2 {
		t.Errorf("Expected 2 fingerprints unfiltered, got %d", len(all))
	}

	stable := eng.ListFingerprints(models.StatusStable, "")
	if len(stable) != 1 || stable[0].Service != "web" {
		t.Errorf("Expected only web to be STABLE, got %d fingerprints", len(stable))
	}

	batch := eng.ListFingerprints("", models.WorkloadBatchJob)
	if len(batch) != 1 || batch[0].Service != "batch" {
		t.Errorf("Expected only batch as BATCH_JOB, got %d fingerprints", len(batch))
	}
}

func TestStatsMeanOfMeans(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 100, MinSamplesForStable: 2, DriftThresholdPct: 50})

	// Chatty service with 3 samples at cpu 10, quiet service with 1 at cpu 40.
	// Mean of means is (10+40)/2 = 25, not the flat sample mean 17.5.
	eng.RecordSample(SampleInput{Service: "chatty", CPUPct: 10, MemoryPct: 20})
	eng.RecordSample(SampleInput{Service: "chatty", CPUPct: 10, MemoryPct: 20})
	eng.RecordSample(SampleInput{Service: "chatty", CPUPct: 10, MemoryPct: 20})
	eng.RecordSample(SampleInput{Service: "quiet", CPUPct: 40, MemoryPct: 60})

	stats := eng.Stats()
	if stats.TotalSamples != 4 {
		t.Errorf("Expected 4 samples, got %d", stats.TotalSamples)
	}
	if stats.TotalFingerprints != 2 {
		t.Errorf("Expected 2 fingerprints, got %d", stats.TotalFingerprints)
	}
	if stats.StableCount != 1 || stats.LearningCount != 1 {
		t.Errorf("Expected 1 stable + 1 learning, got %d/%d", stats.StableCount, stats.LearningCount)
	}
	if stats.AvgCPU != 25.0 {
		t.Errorf("Expected avg cpu 25.0 (mean of means), got %.2f", stats.AvgCPU)
	}
	if stats.AvgMemory != 40.0 {
		t.Errorf("Expected avg memory 40.0 (mean of means), got %.2f", stats.AvgMemory)
	}
}

func TestReadOpsAreIdempotent(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 100, MinSamplesForStable: 2, DriftThresholdPct: 50})

	eng.RecordSample(SampleInput{Service: "api", CPUPct: 10})
	eng.RecordSample(SampleInput{Service: "api", CPUPct: 30})

	first := eng.Stats()
	second := eng.Stats()
	if first != second {
		t.Errorf("Stats changed between reads: %+v vs %+v", first, second)
	}

	if len(eng.ListFingerprints("", "")) != len(eng.ListFingerprints("", "")) {
		t.Error("ListFingerprints changed between reads")
	}
	if len(eng.GetSamples("api", 0)) != len(eng.GetSamples("api", 0)) {
		t.Error("GetSamples changed between reads")
	}

	// Mutating a returned snapshot must not leak into the engine
	fp, _ := eng.GetFingerprint("api")
	fp.CPUMean = -1
	again, _ := eng.GetFingerprint("api")
	if again.CPUMean != 20.0 {
		t.Errorf("Snapshot mutation leaked into engine: got %.2f", again.CPUMean)
	}
}

func TestMarkDrifted(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSamples: 100, MinSamplesForStable: 2, DriftThresholdPct: 50})

	if _, ok := eng.MarkDrifted("ghost"); ok {
		t.Error("Expected MarkDrifted on unknown service to report not-found")
	}

	eng.RecordSample(SampleInput{Service: "api", CPUPct: 10})
	eng.RecordSample(SampleInput{Service: "api", CPUPct: 10})

	fp, ok := eng.MarkDrifted("api")
	if !ok {
		t.Fatal("Expected MarkDrifted to succeed")
	}
	if fp.Status != models.StatusDrifted {
		t.Errorf("Expected DRIFTED, got %s", fp.Status)
	}

	// Drift checks keep working once marked
	eng.RecordSample(SampleInput{Service: "api", CPUPct: 100})
	if len(eng.CheckDrift("api")) == 0 {
		t.Error("Expected CheckDrift to keep operating on a DRIFTED fingerprint")
	}
}

func TestConfigValidation(t *testing.T) {
	if _, err := New(Config{MaxSamples: 0, MinSamplesForStable: 1, DriftThresholdPct: 50}); err == nil {
		t.Error("Expected error for zero max samples")
	}
	if _, err := New(Config{MaxSamples: 10, MinSamplesForStable: 0, DriftThresholdPct: 50}); err == nil {
		t.Error("Expected error for zero stability threshold")
	}
	if _, err := New(Config{MaxSamples: 10, MinSamplesForStable: 1, DriftThresholdPct: -1}); err == nil {
		t.Error("Expected error for negative drift threshold")
	}

	eng, err := New(Config{})
	if err != nil {
		t.Fatalf("Expected zero config to fall back to defaults, got %v", err)
	}
	if eng.Config() != DefaultConfig() {
		t.Errorf("Expected default config, got %+v", eng.Config())
	}
}

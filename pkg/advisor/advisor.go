package advisor

import (
	"fmt"
	"sort"

	"github.com/opscart/workload-drift-engine/pkg/engine"
	"github.com/opscart/workload-drift-engine/pkg/models"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

type ActionType string

const (
	ScaleUp     ActionType = "SCALE_UP"
	Investigate ActionType = "INVESTIGATE"
	Rebaseline  ActionType = "REBASELINE"
	NoAction    ActionType = "NO_ACTION"
)

// Advice is a rule-based remediation suggestion for one service's drift
type Advice struct {
	Service  string
	Severity Severity
	Action   ActionType
	Reason   string
	Alerts   []models.DriftAlert
}

// Advisor converts drift alerts into actionable suggestions, tuned per
// workload type via the engine's workload profiles.
type Advisor struct {
	criticalDeviationPct float64
}

func New() *Advisor {
	return &Advisor{
		criticalDeviationPct: 200.0,
	}
}

// Advise evaluates a service's alerts against its fingerprint. Returns nil
// when there is nothing worth acting on.
func (a *Advisor) Advise(fp *models.WorkloadFingerprint, alerts []models.DriftAlert) *Advice {
	if fp == nil || len(alerts) == 0 {
		return nil
	}

	profile := engine.GetWorkloadProfile(fp.WorkloadType)

	// A window smaller than the profile's minimum is too noisy to act on
	if fp.SampleCount < profile.MinWindow {
		return &Advice{
			Service:  fp.Service,
			Severity: SeverityInfo,
			Action:   NoAction,
			Reason: fmt.Sprintf("only %d sample(s) retained; %s needs %d before advice is trusted",
				fp.SampleCount, fp.WorkloadType, profile.MinWindow),
			Alerts: alerts,
		}
	}

	worst := worstAlert(alerts)
	critical := a.criticalDeviationPct * profile.ThresholdMultiplier

	severity := SeverityWarning
	if worst.DeviationPct > critical {
		severity = SeverityCritical
	}

	// A spiky baseline means large excursions are normal for this service,
	// so a critical finding is softened to a warning.
	pattern := classifyVariability(fp)
	if severity == SeverityCritical && (pattern == "spiky" || pattern == "highly-variable") {
		severity = SeverityWarning
	}

	if !profile.AlertingEnabled {
		severity = SeverityInfo
	}

	action, reason := suggest(worst, fp)
	if pattern != "steady" {
		reason = fmt.Sprintf("%s (baseline is %s)", reason, pattern)
	}

	return &Advice{
		Service:  fp.Service,
		Severity: severity,
		Action:   action,
		Reason:   reason,
		Alerts:   alerts,
	}
}

// classifyVariability buckets the fingerprint's cpu coefficient of variation.
// High CV (>0.5) means a spiky workload, low CV (<0.2) a steady one.
func classifyVariability(fp *models.WorkloadFingerprint) string {
	if fp.CPUMean == 0 {
		return "steady"
	}
	cv := fp.CPUStddev / fp.CPUMean
	switch {
	case cv < 0.15:
		return "steady"
	case cv < 0.35:
		return "moderate"
	case cv < 0.70:
		return "spiky"
	default:
		return "highly-variable"
	}
}

// worstAlert picks the alert with the largest deviation
func worstAlert(alerts []models.DriftAlert) models.DriftAlert {
	sorted := make([]models.DriftAlert, len(alerts))
	copy(sorted, alerts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DeviationPct > sorted[j].DeviationPct
	})
	return sorted[0]
}

func suggest(worst models.DriftAlert, fp *models.WorkloadFingerprint) (ActionType, string) {
	rising := worst.ObservedValue > worst.ExpectedValue

	switch worst.Metric {
	case models.MetricCPUPct:
		if rising {
			return ScaleUp, fmt.Sprintf("cpu is %.1f%% above its learned baseline of %.1f%%; consider more replicas or larger requests",
				worst.DeviationPct, worst.ExpectedValue)
		}
		return Rebaseline, fmt.Sprintf("cpu dropped %.1f%% below baseline; if the change is permanent, clear %s to relearn",
			worst.DeviationPct, fp.Service)

	case models.MetricMemoryPct:
		if rising {
			return Investigate, fmt.Sprintf("memory is %.1f%% above baseline %.1f%%; check for leaks or cache growth",
				worst.DeviationPct, worst.ExpectedValue)
		}
		return Rebaseline, fmt.Sprintf("memory dropped %.1f%% below baseline; workload footprint may have changed",
			worst.DeviationPct)

	case models.MetricRequestRate:
		if rising {
			return ScaleUp, fmt.Sprintf("request rate %.1f/s vs baseline %.1f/s; traffic surge in progress",
				worst.ObservedValue, worst.ExpectedValue)
		}
		return Investigate, fmt.Sprintf("request rate collapsed to %.1f/s from baseline %.1f/s; upstream may be failing",
			worst.ObservedValue, worst.ExpectedValue)
	}

	return Investigate, fmt.Sprintf("%s deviates %.1f%% from baseline", worst.Metric, worst.DeviationPct)
}

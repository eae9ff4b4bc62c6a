package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/opscart/workload-drift-engine/pkg/engine"
)

// PrometheusSource collects per-service utilization from Prometheus
type PrometheusSource struct {
	client  v1.API
	url     string
	verbose bool
}

func NewPrometheusSource(url string, verbose bool) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: url,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &PrometheusSource{
		client:  v1.NewAPI(client),
		url:     url,
		verbose: verbose,
	}, nil
}

// CollectSample fetches one observation for a service. Missing series are not
// an error: ingestion is permissive and absent metrics stay at zero.
func (p *PrometheusSource) CollectSample(ctx context.Context, namespace, service string) (engine.SampleInput, error) {
	in := engine.SampleInput{Service: service}

	// CPU utilization as a percentage of requests
	cpuQuery := fmt.Sprintf(
		`100 * sum(rate(container_cpu_usage_seconds_total{namespace="%s",pod=~"%s-.*",container!="POD"}[5m])) / sum(kube_pod_container_resource_requests{namespace="%s",pod=~"%s-.*",resource="cpu"})`,
		namespace, service, namespace, service)
	if cpu, err := p.querySingle(ctx, cpuQuery); err == nil {
		in.CPUPct = cpu
	} else if p.verbose {
		fmt.Printf("[DEBUG] cpu query empty for %s/%s: %v\n", namespace, service, err)
	}

	// Memory utilization as a percentage of requests
	memQuery := fmt.Sprintf(
		`100 * sum(container_memory_working_set_bytes{namespace="%s",pod=~"%s-.*",container!="POD"}) / sum(kube_pod_container_resource_requests{namespace="%s",pod=~"%s-.*",resource="memory"})`,
		namespace, service, namespace, service)
	if mem, err := p.querySingle(ctx, memQuery); err == nil {
		in.MemoryPct = mem
	} else if p.verbose {
		fmt.Printf("[DEBUG] memory query empty for %s/%s: %v\n", namespace, service, err)
	}

	// Request and error rates from the service's RED metrics
	reqQuery := fmt.Sprintf(
		`sum(rate(http_requests_total{namespace="%s",service="%s"}[5m]))`,
		namespace, service)
	if req, err := p.querySingle(ctx, reqQuery); err == nil {
		in.RequestRate = req
	}

	errQuery := fmt.Sprintf(
		`sum(rate(http_requests_total{namespace="%s",service="%s",status=~"5.."}[5m]))`,
		namespace, service)
	if errRate, err := p.querySingle(ctx, errQuery); err == nil {
		in.ErrorRate = errRate
	}

	latQuery := fmt.Sprintf(
		`histogram_quantile(0.99, sum by (le) (rate(http_request_duration_seconds_bucket{namespace="%s",service="%s"}[5m]))) * 1000`,
		namespace, service)
	if lat, err := p.querySingle(ctx, latQuery); err == nil {
		in.LatencyP99Ms = lat
	}

	return in, nil
}

// Backfill replays a historical CPU/memory window as discrete observations so
// a fresh engine does not start every fingerprint from an empty window.
func (p *PrometheusSource) Backfill(ctx context.Context, namespace, service string, lookback, step time.Duration) ([]engine.SampleInput, error) {
	endTime := time.Now()
	startTime := endTime.Add(-lookback)
	r := v1.Range{
		Start: startTime,
		End:   endTime,
		Step:  step,
	}

	cpuQuery := fmt.Sprintf(
		`100 * sum(rate(container_cpu_usage_seconds_total{namespace="%s",pod=~"%s-.*",container!="POD"}[5m])) / sum(kube_pod_container_resource_requests{namespace="%s",pod=~"%s-.*",resource="cpu"})`,
		namespace, service, namespace, service)

	if p.verbose {
		fmt.Printf("[DEBUG] Prometheus backfill query: %s\n", cpuQuery)
		fmt.Printf("[DEBUG] Time range: %s to %s (step: %s)\n",
			startTime.Format(time.RFC3339), endTime.Format(time.RFC3339), step)
	}

	cpuPoints, err := p.queryRange(ctx, cpuQuery, r)
	if err != nil {
		return nil, fmt.Errorf("failed to backfill CPU usage: %w", err)
	}

	memQuery := fmt.Sprintf(
		`100 * sum(container_memory_working_set_bytes{namespace="%s",pod=~"%s-.*",container!="POD"}) / sum(kube_pod_container_resource_requests{namespace="%s",pod=~"%s-.*",resource="memory"})`,
		namespace, service, namespace, service)

	memPoints, err := p.queryRange(ctx, memQuery, r)
	if err != nil {
		return nil, fmt.Errorf("failed to backfill memory usage: %w", err)
	}

	memAt := make(map[int64]float64, len(memPoints))
	for _, pt := range memPoints {
		memAt[pt.ts.Unix()] = pt.value
	}

	inputs := make([]engine.SampleInput, 0, len(cpuPoints))
	for _, pt := range cpuPoints {
		inputs = append(inputs, engine.SampleInput{
			Service:   service,
			CPUPct:    pt.value,
			MemoryPct: memAt[pt.ts.Unix()],
		})
	}

	if p.verbose {
		fmt.Printf("[DEBUG] Backfilled %d samples for %s/%s\n", len(inputs), namespace, service)
	}
	return inputs, nil
}

type rangePoint struct {
	ts    time.Time
	value float64
}

// queryRange runs a range query and flattens the matrix into ordered points
func (p *PrometheusSource) queryRange(ctx context.Context, query string, r v1.Range) ([]rangePoint, error) {
	result, warnings, err := p.client.QueryRange(ctx, query, r)
	if err != nil {
		return nil, fmt.Errorf("prometheus query failed: %w", err)
	}

	if len(warnings) > 0 && p.verbose {
		fmt.Printf("[DEBUG] Prometheus warnings: %v\n", warnings)
	}

	matrix, ok := result.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}

	var points []rangePoint
	for _, series := range matrix {
		for _, value := range series.Values {
			points = append(points, rangePoint{
				ts:    value.Timestamp.Time(),
				value: float64(value.Value),
			})
		}
	}
	return points, nil
}

func (p *PrometheusSource) querySingle(ctx context.Context, query string) (float64, error) {
	result, warnings, err := p.client.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}

	if len(warnings) > 0 && p.verbose {
		fmt.Printf("[DEBUG] Prometheus warnings: %v\n", warnings)
	}

	vector, ok := result.(model.Vector)
	if !ok || len(vector) == 0 {
		return 0, fmt.Errorf("no data for query: %s", query)
	}

	// Sum all values (in case multiple series match)
	sum := 0.0
	for _, sample := range vector {
		sum += float64(sample.Value)
	}

	return sum, nil
}

func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

func (p *PrometheusSource) Name() string {
	return "Prometheus"
}

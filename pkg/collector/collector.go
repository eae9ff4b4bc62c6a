package collector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/opscart/workload-drift-engine/pkg/engine"
	"github.com/opscart/workload-drift-engine/pkg/models"
)

// ServiceUsage aggregates live usage for one owning workload
type ServiceUsage struct {
	Service      string
	Namespace    string
	WorkloadType models.WorkloadType
	PodCount     int

	RequestedCPU    int64 // millicores
	ActualCPU       int64 // millicores
	RequestedMemory int64 // bytes
	ActualMemory    int64 // bytes

	CPUPct    float64
	MemoryPct float64
}

// Collector snapshots live pod usage from metrics-server and turns it into
// engine samples, one per owning workload.
type Collector struct {
	clientset     kubernetes.Interface
	metricsClient metricsv.Interface
	verbose       bool
}

// New builds a collector from the local kubeconfig
func New(verbose bool) (*Collector, error) {
	var kubeconfig string
	if home := homedir.HomeDir(); home != "" {
		kubeconfig = filepath.Join(home, ".kube", "config")
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	metricsClient, err := metricsv.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}

	return &Collector{
		clientset:     clientset,
		metricsClient: metricsClient,
		verbose:       verbose,
	}, nil
}

// NewWithClients builds a collector from injected clients
func NewWithClients(clientset kubernetes.Interface, metricsClient metricsv.Interface, verbose bool) *Collector {
	return &Collector{
		clientset:     clientset,
		metricsClient: metricsClient,
		verbose:       verbose,
	}
}

// ServerVersion reports the connected cluster version
func (c *Collector) ServerVersion() (string, error) {
	version, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("failed to connect to cluster: %w", err)
	}
	return version.GitVersion, nil
}

// CollectNamespace snapshots every workload's current utilization in a
// namespace, grouped by owning Deployment/StatefulSet.
func (c *Collector) CollectNamespace(ctx context.Context, namespace string) ([]*ServiceUsage, error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	podMetrics, err := c.metricsClient.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get pod metrics: %w", err)
	}

	// Usage lookup by pod and container
	usageMap := make(map[string]map[string]struct {
		cpu    resource.Quantity
		memory resource.Quantity
	})
	for _, pm := range podMetrics.Items {
		usageMap[pm.Name] = make(map[string]struct {
			cpu    resource.Quantity
			memory resource.Quantity
		})
		for _, container := range pm.Containers {
			usageMap[pm.Name][container.Name] = struct {
				cpu    resource.Quantity
				memory resource.Quantity
			}{
				cpu:    container.Usage[corev1.ResourceCPU],
				memory: container.Usage[corev1.ResourceMemory],
			}
		}
	}

	byService := make(map[string]*ServiceUsage)

	for _, pod := range pods.Items {
		ownerKind, ownerName := getTopLevelOwner(pod)
		if ownerName == "" {
			ownerName = pod.Name
		}

		usage, ok := byService[ownerName]
		if !ok {
			usage = &ServiceUsage{
				Service:      ownerName,
				Namespace:    namespace,
				WorkloadType: classifyOwner(ownerKind),
			}
			byService[ownerName] = usage
		}
		usage.PodCount++

		for _, container := range pod.Spec.Containers {
			if cpu, ok := container.Resources.Requests[corev1.ResourceCPU]; ok {
				usage.RequestedCPU += cpu.MilliValue()
			}
			if mem, ok := container.Resources.Requests[corev1.ResourceMemory]; ok {
				usage.RequestedMemory += mem.Value()
			}

			if containers, ok := usageMap[pod.Name]; ok {
				if cm, ok := containers[container.Name]; ok {
					usage.ActualCPU += cm.cpu.MilliValue()
					usage.ActualMemory += cm.memory.Value()
				}
			}
		}
	}

	out := make([]*ServiceUsage, 0, len(byService))
	for _, usage := range byService {
		usage.CPUPct = utilizationPct(usage.ActualCPU, usage.RequestedCPU)
		usage.MemoryPct = utilizationPct(usage.ActualMemory, usage.RequestedMemory)
		out = append(out, usage)

		if c.verbose {
			fmt.Printf("[DEBUG] %s/%s: cpu %.1f%%, memory %.1f%% over %d pod(s)\n",
				namespace, usage.Service, usage.CPUPct, usage.MemoryPct, usage.PodCount)
		}
	}
	return out, nil
}

// FeedEngine records one sample per collected workload and returns the
// number of samples ingested.
func (c *Collector) FeedEngine(ctx context.Context, eng *engine.Engine, namespace string) (int, error) {
	usages, err := c.CollectNamespace(ctx, namespace)
	if err != nil {
		return 0, err
	}

	for _, usage := range usages {
		eng.RecordSample(engine.SampleInput{
			Service:      usage.Service,
			WorkloadType: usage.WorkloadType,
			CPUPct:       usage.CPUPct,
			MemoryPct:    usage.MemoryPct,
			Metadata: map[string]string{
				"namespace": usage.Namespace,
				"pods":      fmt.Sprintf("%d", usage.PodCount),
			},
		})
	}
	return len(usages), nil
}

// ListNamespaces returns all namespace names in the cluster
func (c *Collector) ListNamespaces(ctx context.Context) ([]string, error) {
	nsList, err := c.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	names := make([]string, 0, len(nsList.Items))
	for _, ns := range nsList.Items {
		names = append(names, ns.Name)
	}
	return names, nil
}

// getTopLevelOwner extracts the top-level workload (Deployment/StatefulSet) from pod
func getTopLevelOwner(pod corev1.Pod) (kind string, name string) {
	if len(pod.OwnerReferences) == 0 {
		return "", ""
	}

	owner := pod.OwnerReferences[0]

	// If owner is ReplicaSet, extract Deployment name
	if owner.Kind == "ReplicaSet" {
		rsName := owner.Name
		lastDash := strings.LastIndex(rsName, "-")
		if lastDash > 0 {
			return "Deployment", rsName[:lastDash]
		}
	}

	return owner.Kind, owner.Name
}

// classifyOwner maps a Kubernetes workload kind onto the engine's taxonomy
func classifyOwner(kind string) models.WorkloadType {
	switch kind {
	case "Deployment", "ReplicaSet":
		return models.WorkloadWebServer
	case "StatefulSet":
		return models.WorkloadDatabase
	case "Job", "CronJob":
		return models.WorkloadBatchJob
	case "DaemonSet":
		return models.WorkloadWorker
	default:
		return models.WorkloadUnknown
	}
}

// utilizationPct computes actual/requested as a percentage
func utilizationPct(actual, requested int64) float64 {
	if requested <= 0 {
		return 0
	}
	return float64(actual) / float64(requested) * 100
}

package collector

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/opscart/workload-drift-engine/pkg/models"
)

func podWithOwner(kind, name string) corev1.Pod {
	return corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name: "some-pod",
			OwnerReferences: []metav1.OwnerReference{
				{Kind: kind, Name: name},
			},
		},
	}
}

func TestGetTopLevelOwner(t *testing.T) {
	kind, name := getTopLevelOwner(podWithOwner("ReplicaSet", "checkout-7d4b9c8f6d"))
	if kind != "Deployment" {
		t.Errorf("Expected Deployment for ReplicaSet owner, got %s", kind)
	}
	if name != "checkout" {
		t.Errorf("Expected deployment name 'checkout', got %s", name)
	}

	kind, name = getTopLevelOwner(podWithOwner("StatefulSet", "postgres"))
	if kind != "StatefulSet" || name != "postgres" {
		t.Errorf("Expected StatefulSet/postgres, got %s/%s", kind, name)
	}

	kind, name = getTopLevelOwner(corev1.Pod{})
	if kind != "" || name != "" {
		t.Errorf("Expected empty owner for bare pod, got %s/%s", kind, name)
	}
}

func TestClassifyOwner(t *testing.T) {
	tests := []struct {
		kind     string
		expected models.WorkloadType
	}{
		{"Deployment", models.WorkloadWebServer},
		{"StatefulSet", models.WorkloadDatabase},
		{"Job", models.WorkloadBatchJob},
		{"CronJob", models.WorkloadBatchJob},
		{"DaemonSet", models.WorkloadWorker},
		{"SomethingElse", models.WorkloadUnknown},
	}

	for _, tt := range tests {
		if got := classifyOwner(tt.kind); got != tt.expected {
			t.Errorf("classifyOwner(%s): expected %s, got %s", tt.kind, tt.expected, got)
		}
	}
}

func TestUtilizationPct(t *testing.T) {
	if pct := utilizationPct(500, 1000); pct != 50.0 {
		t.Errorf("Expected 50%%, got %.2f", pct)
	}
	if pct := utilizationPct(1500, 1000); pct != 150.0 {
		t.Errorf("Expected 150%%, got %.2f", pct)
	}
	// No requests configured means no meaningful utilization
	if pct := utilizationPct(500, 0); pct != 0 {
		t.Errorf("Expected 0%% for zero requests, got %.2f", pct)
	}
}

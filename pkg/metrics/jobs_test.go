package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestJobsMetricsRecordRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobs(reg)

	m.ObserveDuration("cart-expiry-sweep", 150*time.Millisecond)
	m.IncSuccess("cart-expiry-sweep")
	m.IncFailure("")
	m.AddRemoved("cart-expiry-sweep", 7)
	m.AddRemoved("cart-expiry-sweep", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "foodyzone_job_success_total", "job", "cart-expiry-sweep"); err != nil || got != 1 {
		t.Fatalf("expected success=1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "foodyzone_job_failure_total", "job", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected failure=1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "foodyzone_job_rows_removed_total", "job", "cart-expiry-sweep"); err != nil || got != 7 {
		t.Fatalf("expected removed=7, got %f err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "foodyzone_job_duration_seconds", "job", "cart-expiry-sweep"); err != nil || got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f err=%v", got, err)
	}
}

func TestNilJobsMetricsAreNoops(t *testing.T) {
	var m *Jobs
	m.IncSuccess("a")
	m.AddRemoved("a", 3)
	NewJobs(nil).ObserveDuration("a", time.Second)
}

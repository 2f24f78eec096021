package metrics

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckout(reg)

	m.IncCartMutation("add_item")
	m.IncCartMutation("add_item")
	m.IncPersist("failed")
	m.IncTransition("delivery", "review")
	m.ObserveOrder(28.89)
	m.IncOrderFailure("")
	m.IncCancellation()
	m.ObserveHTTP(http.MethodGet, "/api/v1/cart", http.StatusOK, 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "foodyzone_cart_mutations_total", "op", "add_item"); err != nil {
		t.Fatalf("fetch mutations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected mutations=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "foodyzone_order_failures_total", "stage", "unknown"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "foodyzone_checkout_transitions_total", "to", "review"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transitions=1, got %f", got)
	}

	placed := findMetricFamily(mfs, "foodyzone_orders_placed_total")
	if placed == nil || placed.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one placed order")
	}

	totals := findMetricFamily(mfs, "foodyzone_order_total_amount")
	if totals == nil || totals.GetMetric()[0].GetHistogram().GetSampleSum() != 28.89 {
		t.Fatalf("expected order total sum 28.89")
	}

	if got, err := fetchHistogramSum(mfs, "foodyzone_http_request_duration_seconds", "route", "/api/v1/cart"); err != nil {
		t.Fatalf("fetch http duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilCheckoutMetricsAreNoops(t *testing.T) {
	var m *Checkout
	m.IncCartMutation("clear")
	m.ObserveOrder(1)
	m.IncCancellation()

	unregistered := NewCheckout(nil)
	unregistered.IncPersist("ok")
	unregistered.ObserveHTTP(http.MethodPost, "/x", 500, time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

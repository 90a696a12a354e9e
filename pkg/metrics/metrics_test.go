package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersWithoutPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	if m == nil {
		t.Fatal("expected non-nil Metrics")
	}
	m.RequestsTotal.WithLabelValues("heartbeat", "success").Inc()
	m.PendingRequests.Set(1)
}

func TestNoOpIsSingletonSafe(t *testing.T) {
	a := NoOp()
	b := NoOp()
	if a != b {
		t.Fatal("expected NoOp() to return the same instance")
	}
}

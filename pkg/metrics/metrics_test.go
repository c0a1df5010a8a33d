package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersOnPrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ClientRequestsTotal.WithLabelValues("suggest", "200").Inc()
	m.StaleResponsesTotal.Inc()
	m.StaleResponsesTotal.Inc()

	if got := testutil.ToFloat64(m.ClientRequestsTotal.WithLabelValues("suggest", "200")); got != 1 {
		t.Errorf("expected 1 request, got %v", got)
	}
	if got := testutil.ToFloat64(m.StaleResponsesTotal); got != 2 {
		t.Errorf("expected 2 stale responses, got %v", got)
	}

	// a second registry must accept a fresh set of collectors
	_ = New(prometheus.NewRegistry())
}

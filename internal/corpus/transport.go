package corpus

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/metrics"
)

type endpointKey struct{}

func withEndpoint(ctx context.Context, ep Endpoint) context.Context {
	return context.WithValue(ctx, endpointKey{}, ep)
}

func endpointFrom(ctx context.Context) Endpoint {
	if ep, ok := ctx.Value(endpointKey{}).(Endpoint); ok {
		return ep
	}
	return "other"
}

// instrumentedTransport records request count, latency, and in-flight gauge
// for every round trip to the corpus server.
type instrumentedTransport struct {
	next http.RoundTripper
	m    *metrics.Metrics
}

func newInstrumentedTransport(next http.RoundTripper, m *metrics.Metrics) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	return &instrumentedTransport{next: next, m: m}
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ep := string(endpointFrom(req.Context()))

	t.m.ClientRequestsInFlight.Inc()
	defer t.m.ClientRequestsInFlight.Dec()

	resp, err := t.next.RoundTrip(req)

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	t.m.ClientRequestsTotal.WithLabelValues(ep, status).Inc()
	t.m.ClientRequestDuration.WithLabelValues(ep).Observe(time.Since(start).Seconds())
	return resp, err
}

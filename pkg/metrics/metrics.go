// Package metrics defines the Prometheus collectors used by the corpus
// client and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the client.
type Metrics struct {
	ClientRequestsTotal    *prometheus.CounterVec
	ClientRequestDuration  *prometheus.HistogramVec
	ClientRequestsInFlight prometheus.Gauge
	DebounceFiresTotal     prometheus.Counter
	SuggestDispatchesTotal prometheus.Counter
	StaleResponsesTotal    prometheus.Counter
	SuggestionsReturned    prometheus.Histogram
	CircuitBreakerState    *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ClientRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_client_requests_total",
				Help: "Total requests to the corpus server by endpoint and status.",
			},
			[]string{"endpoint", "status"},
		),
		ClientRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpus_client_request_duration_seconds",
				Help:    "Corpus server request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"endpoint"},
		),
		ClientRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_client_requests_in_flight",
				Help: "Number of corpus server requests currently outstanding.",
			},
		),
		DebounceFiresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "suggest_debounce_fires_total",
				Help: "Debounced actions that fired after a quiet period.",
			},
		),
		SuggestDispatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "suggest_dispatches_total",
				Help: "Suggestion requests issued for a non-empty field value.",
			},
		),
		StaleResponsesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "suggest_stale_responses_total",
				Help: "Suggestion completions dropped because a newer request superseded them.",
			},
		),
		SuggestionsReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "suggest_results_count",
				Help:    "Number of suggestions rendered per successful response.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.ClientRequestsTotal,
		m.ClientRequestDuration,
		m.ClientRequestsInFlight,
		m.DebounceFiresTotal,
		m.SuggestDispatchesTotal,
		m.StaleResponsesTotal,
		m.SuggestionsReturned,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

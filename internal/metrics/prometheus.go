// Package metrics provides Prometheus instrumentation for campaign runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/campaign-runner/internal/types"
)

// Metrics contains all Prometheus collectors for one campaign process.
type Metrics struct {
	registry *prometheus.Registry

	CallsInitiated        *prometheus.CounterVec
	Results               *prometheus.CounterVec
	TranscriptPolls       prometheus.Counter
	TranscriptFetchErrors prometheus.Counter
	TranscriptWait        prometheus.Histogram
	ContactsInFlight      prometheus.Gauge
}

// New creates the collectors on a private registry. Every call status starts
// at zero so the status series exist before the first result.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		CallsInitiated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_calls_initiated_total",
			Help: "Call-initiation attempts by outcome (success or failure)",
		}, []string{"outcome"}),
		Results: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_results_total",
			Help: "Result records produced by call status",
		}, []string{"status"}),
		TranscriptPolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "campaign_transcript_polls_total",
			Help: "Transcript listing fetches issued while waiting for transcripts",
		}),
		TranscriptFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "campaign_transcript_fetch_errors_total",
			Help: "Transcript listing fetches that failed and were treated as empty",
		}),
		TranscriptWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "campaign_transcript_wait_seconds",
			Help:    "Time from call submission until a transcript matched",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8), // 5s to ~10 minutes
		}),
		ContactsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "campaign_contacts_in_flight",
			Help: "Contacts currently being processed",
		}),
	}
	for _, status := range types.AllStatuses {
		m.Results.WithLabelValues(string(status))
	}
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// The recording helpers below are safe on a nil *Metrics so components can run
// uninstrumented.

// RecordCall counts one call-initiation attempt.
func (m *Metrics) RecordCall(success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.CallsInitiated.WithLabelValues(outcome).Inc()
}

// RecordResult counts one finished contact by status.
func (m *Metrics) RecordResult(status string) {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(status).Inc()
}

// RecordPoll counts one transcript listing fetch.
func (m *Metrics) RecordPoll() {
	if m == nil {
		return
	}
	m.TranscriptPolls.Inc()
}

// RecordFetchError counts one failed transcript listing fetch.
func (m *Metrics) RecordFetchError() {
	if m == nil {
		return
	}
	m.TranscriptFetchErrors.Inc()
}

// ObserveTranscriptWait records how long a matched transcript took to appear.
func (m *Metrics) ObserveTranscriptWait(d time.Duration) {
	if m == nil {
		return
	}
	m.TranscriptWait.Observe(d.Seconds())
}

// ContactStarted marks a contact as in flight and returns the matching
// completion func.
func (m *Metrics) ContactStarted() func() {
	if m == nil {
		return func() {}
	}
	m.ContactsInFlight.Inc()
	return m.ContactsInFlight.Dec
}

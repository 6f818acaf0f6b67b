package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sentinel"

// Recorder owns the service's Prometheus registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	investigations   *prometheus.CounterVec
	investigationDur prometheus.Histogram
	trustScore       prometheus.Histogram
	deductions       *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
}

// New builds a Recorder with Go and process collectors registered.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		investigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "investigations_total",
			Help:      "Investigations run, by outcome.",
		}, []string{"outcome"}),
		investigationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "investigation_duration_seconds",
			Help:      "Wall time of a full investigation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		trustScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trust_score",
			Help:      "Distribution of final trust scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		deductions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deductions_total",
			Help:      "Trust score deductions applied, by rule.",
		}, []string{"rule"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Outbound provider calls, by provider and HTTP status.",
		}, []string{"provider", "status"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Outbound provider call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	registry.MustRegister(
		r.investigations,
		r.investigationDur,
		r.trustScore,
		r.deductions,
		r.providerRequests,
		r.providerLatency,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveInvestigation records one finished investigation.
func (r *Recorder) ObserveInvestigation(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.investigations.WithLabelValues(outcome).Inc()
	r.investigationDur.Observe(elapsed.Seconds())
}

// ObserveScore records a final trust score and the rules that produced it.
func (r *Recorder) ObserveScore(score int, rules []string) {
	if r == nil {
		return
	}
	r.trustScore.Observe(float64(score))
	for _, rule := range rules {
		r.deductions.WithLabelValues(rule).Inc()
	}
}

// ObserveProvider records one outbound call. status is the HTTP status, or 0 for transport errors.
func (r *Recorder) ObserveProvider(provider string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.providerRequests.WithLabelValues(provider, label).Inc()
	r.providerLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

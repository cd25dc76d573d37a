// Package metrics exposes Prometheus collectors for the lead pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchesTotal        *prometheus.CounterVec
	leadsTotal          *prometheus.CounterVec
	rejectsTotal        *prometheus.CounterVec
	rateGateDelaySecs   *prometheus.HistogramVec
	enrichLookupsTotal  *prometheus.CounterVec
	fetchDurationSecs   *prometheus.HistogramVec
	activeScrapeWorkers prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadgrid_fetches_total",
				Help: "Fetch attempts by source site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		leadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadgrid_leads_total",
				Help: "Lead upserts by source site and outcome (inserted/merged).",
			},
			[]string{"site", "outcome"},
		)

		rejectsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadgrid_rejects_total",
				Help: "Candidates dropped during normalization, by reason.",
			},
			[]string{"reason"},
		)

		rateGateDelaySecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadgrid_rate_gate_delay_seconds",
				Help:    "Time spent waiting on the shared request gate.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"gate"},
		)

		enrichLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadgrid_enrich_lookups_total",
				Help: "Enrichment lookups by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		)

		fetchDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadgrid_fetch_duration_seconds",
				Help:    "Fetch latency by source site.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"site"},
		)

		activeScrapeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadgrid_active_scrape_workers",
				Help: "Number of scrape workers currently running.",
			},
		)
	})
}

// ObserveFetch records a fetch attempt outcome and latency.
func ObserveFetch(site, outcome string, duration time.Duration) {
	if fetchesTotal == nil {
		return
	}
	fetchesTotal.WithLabelValues(site, outcome).Inc()
	fetchDurationSecs.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveUpsert records a lead upsert outcome.
func ObserveUpsert(site, outcome string) {
	if leadsTotal == nil {
		return
	}
	leadsTotal.WithLabelValues(site, outcome).Inc()
}

// ObserveReject records a dropped candidate.
func ObserveReject(reason string) {
	if rejectsTotal == nil {
		return
	}
	rejectsTotal.WithLabelValues(reason).Inc()
}

// ObserveGateDelay records time spent blocked on a rate gate.
func ObserveGateDelay(gate string, d time.Duration) {
	if rateGateDelaySecs == nil {
		return
	}
	rateGateDelaySecs.WithLabelValues(gate).Observe(d.Seconds())
}

// ObserveEnrichLookup records an enrichment provider call outcome.
func ObserveEnrichLookup(provider, outcome string) {
	if enrichLookupsTotal == nil {
		return
	}
	enrichLookupsTotal.WithLabelValues(provider, outcome).Inc()
}

// WorkerStarted increments the active worker gauge.
func WorkerStarted() {
	if activeScrapeWorkers != nil {
		activeScrapeWorkers.Inc()
	}
}

// WorkerStopped decrements the active worker gauge.
func WorkerStopped() {
	if activeScrapeWorkers != nil {
		activeScrapeWorkers.Dec()
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

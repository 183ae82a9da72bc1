// Package metrics exposes pipeline counters and timings for the /metrics
// endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CandidatesScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamarr_candidates_scanned_total",
		Help: "Total number of scan candidates produced, by source.",
	}, []string{"source"})

	CandidatesDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamarr_candidates_deduped_total",
		Help: "Total number of candidates dropped as already in the library.",
	})

	CandidatesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamarr_candidates_completed_total",
		Help: "Total number of candidates finishing the pipeline, by final status.",
	}, []string{"status"})

	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamarr_provider_requests_total",
		Help: "Total number of external provider requests, by provider and result.",
	}, []string{"provider", "result"})

	ArtworkCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamarr_artwork_cache_hits_total",
		Help: "Total number of artwork lookups served from the local cache.",
	})

	ArtworkCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamarr_artwork_cache_misses_total",
		Help: "Total number of artwork lookups requiring a download.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gamarr_scan_duration_seconds",
		Help:    "Duration of full pipeline runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordScanDuration records the time taken for a full pipeline run
func RecordScanDuration(start time.Time) {
	ScanDuration.Observe(time.Since(start).Seconds())
}

// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: e134acce-1e88-4191-b5de-10c87cdd8015

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup outcomes.
const (
	LookupSelected      = "selected"
	LookupFallbackError = "fallback_error"
	LookupFallbackEmpty = "fallback_empty"
	LookupCacheHit      = "cache_hit"
	LookupRateLimited   = "rate_limited"
)

// Probe outcomes.
const (
	ProbeSuccess  = "success"
	ProbeTimeout  = "timeout"
	ProbeError    = "error"
	ProbeTooSmall = "too_small"
)

// Update results.
const (
	UpdateSuccess     = "success"
	UpdateInvalid     = "invalid"
	UpdateUnavailable = "storage_unavailable"
	UpdateError       = "error"
)

var (
	registerOnce sync.Once

	metadataLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookclub",
		Name:      "metadata_lookups_total",
		Help:      "Metadata resolutions by outcome",
	}, []string{"outcome"})
	metadataLookupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bookclub",
		Name:      "metadata_lookup_duration_seconds",
		Help:      "Duration of outbound metadata lookups in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10), // ~50ms up to several seconds
	})
	coverProbes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookclub",
		Name:      "cover_probes_total",
		Help:      "Server-side cover candidate probes by outcome",
	}, []string{"outcome"})
	bookUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookclub",
		Name:      "book_updates_total",
		Help:      "Current book update attempts by result",
	}, []string{"result"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(metadataLookups, metadataLookupDuration, coverProbes, bookUpdates)
	})
}

func IncMetadataLookup(outcome string) { metadataLookups.WithLabelValues(outcome).Inc() }
func ObserveMetadataLookup(d time.Duration) {
	metadataLookupDuration.Observe(d.Seconds())
}
func IncCoverProbe(outcome string) { coverProbes.WithLabelValues(outcome).Inc() }
func IncBookUpdate(result string)  { bookUpdates.WithLabelValues(result).Inc() }

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	// catalog aggregation
	CatalogLoads       prometheus.Counter
	CatalogDiscarded   prometheus.Counter
	CatalogLoadSec     prometheus.Histogram
	CatalogVersion     prometheus.Gauge
	SourceDegraded     *prometheus.CounterVec
	MalformedRecords   *prometheus.CounterVec
	SubmissionOutcomes *prometheus.CounterVec

	// assets
	AssetLocalFallbacks prometheus.Counter
	AssetRetries        *prometheus.CounterVec

	// moderation
	Decisions *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	loads := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_loads_total"})
	discarded := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_loads_discarded_total"})
	loadSec := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_load_seconds",
		Buckets: prometheus.DefBuckets,
	})
	version := prometheus.NewGauge(prometheus.GaugeOpts{Name: "catalog_snapshot_version"})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "catalog_source_degraded_total"}, []string{"source"})
	malformed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "catalog_malformed_records_total"}, []string{"collection"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "catalog_submissions_total"}, []string{"outcome"})

	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{Name: "asset_local_fallback_reads_total"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "asset_remote_retries_total"}, []string{"result"})

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "moderation_decisions_total"}, []string{"decision"})

	r.MustRegister(loads, discarded, loadSec, version, degraded, malformed, outcomes, fallbacks, retries, decisions)
	return &Registry{
		reg:                 r,
		CatalogLoads:        loads,
		CatalogDiscarded:    discarded,
		CatalogLoadSec:      loadSec,
		CatalogVersion:      version,
		SourceDegraded:      degraded,
		MalformedRecords:    malformed,
		SubmissionOutcomes:  outcomes,
		AssetLocalFallbacks: fallbacks,
		AssetRetries:        retries,
		Decisions:           decisions,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

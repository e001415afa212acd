package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hbind_stage_seconds",
		Help:    "Time spent in one pipeline stage of a generation run.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbind_runs_total",
		Help: "Total number of generation runs by outcome code.",
	}, []string{"status"})

	DeclarationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbind_declarations_total",
		Help: "Total number of top-level declarations translated, by kind.",
	}, []string{"kind"})

	ModuleEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hbind_module_entries",
		Help: "Number of entries in the most recently generated lib block.",
	})

	OpaqueTypes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hbind_opaque_types",
		Help: "Number of opaque types emitted by the most recent run.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hbind_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatchRunsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hbind_watch_runs_throttled_total",
		Help: "Total number of watch-triggered runs delayed by the rate limiter.",
	})

	OutputUnchangedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hbind_output_unchanged_total",
		Help: "Total number of runs whose output matched the previous successful run.",
	})
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsSubmitted counts ingestion jobs accepted for execution.
	JobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_jobs_submitted_total",
		Help: "Number of ingestion jobs submitted.",
	})

	// EventsProcessed counts per-event dedup outcomes by action.
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_events_processed_total",
		Help: "Number of events processed, labeled by dedup action.",
	}, []string{"action"})

	// EventFailures counts per-event processing failures.
	EventFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_event_failures_total",
		Help: "Number of events that failed normalization, enrichment or persistence.",
	})

	// SourceFailures counts whole-source fetch failures by source slug.
	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_source_failures_total",
		Help: "Number of source fetch failures.",
	}, []string{"source"})

	// SourceDuration observes wall time spent ingesting one source.
	SourceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_source_duration_seconds",
		Help:    "Time spent fetching and processing a single source.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

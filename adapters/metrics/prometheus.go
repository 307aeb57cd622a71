package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_pipeline_runs_total",
		Help: "Total number of extended video pipeline runs, by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelgen_stage_duration_seconds",
		Help:    "Duration of extended video pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 2400},
	}, []string{"stage"})

	SegmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_segments_total",
		Help: "Total number of segments reaching a terminal state, by status",
	}, []string{"status"})

	SafetyRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelgen_safety_retries_total",
		Help: "Total number of simplified-prompt retries after a safety rejection",
	})

	ScriptSourceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_script_source_total",
		Help: "Total number of composed scripts, by the tier that produced them",
	}, []string{"source"})

	CleanupFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelgen_cleanup_failures_total",
		Help: "Total number of failed deletions of intermediate remote artifacts",
	})

	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelgen_active_jobs",
		Help: "Number of extended video jobs currently holding the admission lock",
	})
)

package prometheus

import (
	"time"

	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// AppMetrics holds all MolNetEnhancer metrics.
type AppMetrics struct {
	// Classification
	LookupsTotal        CounterVec
	LookupDuration      HistogramVec
	RelaxedRetriesTotal CounterVec
	CacheAccessTotal    CounterVec

	// Pipeline
	RunsTotal      CounterVec
	StageDuration  HistogramVec
	FamiliesTotal  GaugeVec
	NodesTotal     GaugeVec
	EdgesTotal     GaugeVec
	ArtifactsTotal CounterVec

	ErrorsTotal CounterVec
}

// Default Buckets
var (
	DefaultLookupDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultStageDurationBuckets  = []float64{.01, .1, .5, 1, 5, 10, 30, 60, 300, 1800}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.LookupsTotal = collector.RegisterCounter("classification_lookups_total", "Identity-key lookups by outcome", "status")
	m.LookupDuration = collector.RegisterHistogram("classification_lookup_duration_seconds", "Duration of one identity-key resolution", DefaultLookupDurationBuckets)
	m.RelaxedRetriesTotal = collector.RegisterCounter("classification_relaxed_retries_total", "Lookups retried with the relaxed identity key", "result")
	m.CacheAccessTotal = collector.RegisterCounter("classification_cache_access_total", "Classification cache accesses", "result")

	m.RunsTotal = collector.RegisterCounter("runs_total", "Pipeline runs", "command", "status")
	m.StageDuration = collector.RegisterHistogram("stage_duration_seconds", "Pipeline stage duration", DefaultStageDurationBuckets, "stage")
	m.FamiliesTotal = collector.RegisterGauge("families", "Molecular families in the last run", "kind")
	m.NodesTotal = collector.RegisterGauge("nodes", "Network nodes in the last run")
	m.EdgesTotal = collector.RegisterGauge("edges", "Network edges in the last run", "interaction")
	m.ArtifactsTotal = collector.RegisterCounter("artifacts_total", "Result artifacts exported", "sink", "status")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// NewNopMetrics returns metrics that discard every update.
func NewNopMetrics() *AppMetrics {
	return NewAppMetrics(NewNopCollector())
}

// Helpers

func RecordLookup(metrics *AppMetrics, status string, duration time.Duration) {
	metrics.LookupsTotal.WithLabelValues(status).Inc()
	metrics.LookupDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordRelaxedRetry(metrics *AppMetrics, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	metrics.RelaxedRetriesTotal.WithLabelValues(result).Inc()
}

func RecordCacheAccess(metrics *AppMetrics, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheAccessTotal.WithLabelValues(result).Inc()
}

func RecordStage(metrics *AppMetrics, stage string, duration time.Duration) {
	metrics.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func RecordRun(metrics *AppMetrics, command string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RunsTotal.WithLabelValues(command, status).Inc()
}

func RecordArtifact(metrics *AppMetrics, sink string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.ArtifactsTotal.WithLabelValues(sink, status).Inc()
}

// RecordError counts err under its application error code.
func RecordError(metrics *AppMetrics, component string, err error) {
	if err == nil {
		return
	}
	metrics.ErrorsTotal.WithLabelValues(component, errors.GetCode(err).String()).Inc()
}

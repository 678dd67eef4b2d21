// Package metrics provides Prometheus metrics for the newswire pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newswire"

// Drop reasons.
const (
	ReasonInvalid    = "invalid"
	ReasonBelowFloor = "below_floor"
	ReasonOverLimit  = "over_limit"
	ReasonDuplicate  = "duplicate"
)

var (
	// ArticlesCollected counts raw candidates returned by source adapters.
	ArticlesCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_collected_total",
			Help:      "Total number of raw articles collected",
		},
		[]string{"entity"},
	)

	// ArticlesDropped counts articles removed before storage, by reason.
	ArticlesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_dropped_total",
			Help:      "Total number of articles dropped before storage",
		},
		[]string{"entity", "reason"},
	)

	// ArticlesStored counts storage attempts by outcome.
	ArticlesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_stored_total",
			Help:      "Total number of article storage attempts",
		},
		[]string{"entity", "status"},
	)

	// EntityRuns counts completed entity runs by outcome.
	EntityRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_runs_total",
			Help:      "Total number of entity runs",
		},
		[]string{"status"},
	)

	// StageDuration measures how long each pipeline stage takes.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
)

// RecordCollected records raw candidates collected for entity.
func RecordCollected(entity string, n int) {
	ArticlesCollected.WithLabelValues(entity).Add(float64(n))
}

// RecordDropped records articles dropped for entity.
func RecordDropped(entity, reason string, n int) {
	if n <= 0 {
		return
	}
	ArticlesDropped.WithLabelValues(entity, reason).Add(float64(n))
}

// RecordStored records the outcome of a storage batch.
func RecordStored(entity string, stored, failed int) {
	ArticlesStored.WithLabelValues(entity, "stored").Add(float64(stored))
	ArticlesStored.WithLabelValues(entity, "failed").Add(float64(failed))
}

// RecordEntityRun records a finished entity run. status is one of
// "succeeded", "empty" or "failed".
func RecordEntityRun(status string) {
	EntityRuns.WithLabelValues(status).Inc()
}

// RecordStage records the duration of a pipeline stage.
func RecordStage(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeIndexed  = "indexed"
	outcomeSkipped  = "skipped"
	outcomeTooLarge = "too_large"
	outcomeFailed   = "failed"
	outcomeRemoved  = "removed"
)

var (
	// filesTotal counts files handled by index runs, by outcome.
	filesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowdex_index_files_total",
		Help: "Files handled by index runs by outcome",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowdex_index_run_duration_seconds",
		Help:    "Index run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"mode"})
)

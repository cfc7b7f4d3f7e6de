// internal/collector/metrics.go
//
// Prometheus instrumentation for collection passes, exported on the API
// server's /metrics route via the default registry.

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "puzzletrack_messages_fetched_total",
		Help: "Channel messages fetched from Discord.",
	})

	parsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "puzzletrack_messages_parsed_total",
		Help: "Messages parsed, labeled by game identifier or sentinel.",
	}, []string{"game"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "puzzletrack_collect_run_seconds",
		Help:    "Duration of collection passes.",
		Buckets: prometheus.DefBuckets,
	})
)

package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Name:      "syncs_total",
		Help:      "Provider sync attempts by metric kind.",
	}, []string{"metric"})

	syncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Name:      "sync_failures_total",
		Help:      "Provider sync attempts that fetched nothing due to an error.",
	}, []string{"metric"})

	samplesMerged = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Name:      "samples_merged_total",
		Help:      "Samples merged into the local store by metric kind.",
	}, []string{"metric"})

	samplesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Name:      "samples_dropped_total",
		Help:      "Provider samples dropped as malformed or empty.",
	}, []string{"metric"})
)
